package storage

import "testing"

func TestParseURL(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{in: "s3://bucket/doc.pdf", bucket: "bucket", key: "doc.pdf"},
		{in: "s3://bucket/a/b/doc_3-7.pdf", bucket: "bucket", key: "a/b/doc_3-7.pdf"},
		{in: "s3://bucket", wantErr: true},
		{in: "s3:///key", wantErr: true},
		{in: "/local/doc.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("Expected %s/%s, got %s/%s", tt.bucket, tt.key, bucket, key)
			}
		})
	}
}

package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  Config
		want Driver
	}{
		{Config{}, DriverMemory},
		{Config{Driver: DriverMemory}, DriverMemory},
		{Config{Driver: DriverFilesystem, FSRoot: t.TempDir()}, DriverFilesystem},
		{Config{Driver: DriverS3, S3: S3Config{Bucket: "reports", Region: "eu-west-1", AccessKeyID: "k", SecretAccessKey: "s"}}, DriverS3},
	}
	for _, tc := range cases {
		store, err := Open(ctx, tc.cfg)
		if err != nil {
			t.Fatalf("open %q: %v", tc.cfg.Driver, err)
		}
		if store.Driver() != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, store.Driver())
		}
	}
	if _, err := Open(ctx, Config{Driver: "gcs"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

package diagram

import (
	"bytes"
	"context"

	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/filestore"
)

// Export encodes d in format f and uploads it to bucket/key.
func Export(ctx context.Context, store filestore.Store, bucket, key string, d *Diagram, f Format) (*filestore.ObjectInfo, error) {
	if d == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "nothing to export")
	}
	if key == "" {
		key = "erd-" + d.GeneratedAt.UTC().Format("20060102T150405Z") + "." + f.Extension()
	}

	var buf bytes.Buffer
	if err := Encode(&buf, d, f); err != nil {
		return nil, err
	}
	return store.Put(ctx, bucket, key, &buf, int64(buf.Len()), f.ContentType())
}

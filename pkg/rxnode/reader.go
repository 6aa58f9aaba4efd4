package rxnode

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/irguard/irguard.go/pkg/framework"
	"github.com/irguard/irguard.go/pkg/hw"
)

// Reader pulls bytes off the serial link and posts them into the loop,
// so decoding and supervision state stay single-owner. Read timeouts
// are expected on a quiet link and carry no meaning here; the
// supervisor derives liveness from time, not from read errors.
type Reader struct {
	Port io.Reader
	Loop fx.LoopControl
}

// Name implements framework.Named.
func (r *Reader) Name() string {
	return "link-reader"
}

// Run implements framework.Runnable.
func (r *Reader) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Port.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			r.Loop.PostMessage(BytesMsg{Data: data})
		}
		if err != nil && !hw.IsTimeout(err) {
			if err == io.EOF {
				glog.Warning("link closed")
				return nil
			}
			return err
		}
	}
}

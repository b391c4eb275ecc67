package scan

import "context"

// Decoder is the scan-input collaborator: it turns a capture frame into a
// decoded barcode string, or reports that the frame contains none. How the
// frame was captured is not this system's concern.
type Decoder interface {
	Decode(ctx context.Context, frame []byte) (code string, found bool, err error)
}

// NoopDecoder never finds a code; wired when no scanner hardware exists.
type NoopDecoder struct{}

func (NoopDecoder) Decode(_ context.Context, _ []byte) (string, bool, error) {
	return "", false, nil
}

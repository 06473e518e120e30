package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushed bool
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	rec := &recorder{}
	SetReporter(rec)
	defer SetReporter(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"configuration": "DC60=1"})
	Flush(time.Second)

	assert.Len(t, rec.errs, 1)
	assert.Equal(t, "DC60=1", rec.tags[0]["configuration"])
	assert.True(t, rec.flushed)
}

func TestNopReporterByDefault(t *testing.T) {
	SetReporter(nil)
	CaptureException(errors.New("ignored"), nil)
	Flush(0)
}

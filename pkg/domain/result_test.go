package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceResult(t *testing.T) {
	img := NewImageResult("data:image/png;base64,QQ==")
	assert.Equal(t, ResultImage, img.Kind)
	assert.Empty(t, img.Text)

	txt := NewTextResult("a cat")
	assert.Equal(t, ResultText, txt.Kind)
	assert.Empty(t, txt.DataURI)

	assert.Equal(t, "image", ResultImage.String())
	assert.Equal(t, "text", ResultText.String())
	assert.Equal(t, "unknown", ResultKind(0).String())
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("rpc error: code = Unavailable")
	err := &ServiceError{Message: "rpc error: code = Unavailable", Cause: cause}

	assert.EqualError(t, err, "rpc error: code = Unavailable")
	assert.ErrorIs(t, err, cause)
}

// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSearchQueryErrorIsRetryable(t *testing.T) {
	err := NewSearchQueryError("customers", "acme", assert.AnError)

	assert.Equal(t, ErrCodeSearchQueryFailed, CodeOf(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "customers", err.Metadata["collection"])
	assert.Contains(t, err.Error(), "SEARCH_QUERY_FAILED")
}

func TestNewCustomerNotFoundErrorCarriesID(t *testing.T) {
	err := NewCustomerNotFoundError("cust-42")

	assert.Equal(t, ErrCodeCustomerNotFound, CodeOf(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "cust-42", err.Metadata["customerId"])
}

func TestNewCacheErrorPicksCodeByOperation(t *testing.T) {
	assert.Equal(t, ErrCodeCacheReadFailed, NewCacheError("read", assert.AnError).Code)
	assert.Equal(t, ErrCodeCacheWriteFailed, NewCacheError("write", assert.AnError).Code)
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

package exchange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError_TransientOnTimeout(t *testing.T) {
	err := classifyError("GetKlines", errors.New("request timeout"))
	var transient *TransientExchangeError
	require.ErrorAs(t, err, &transient)
}

func TestClassifyError_PermanentOnUnknown(t *testing.T) {
	err := classifyError("GetKlines", errors.New("invalid symbol"))
	var permanent *PermanentExchangeError
	require.ErrorAs(t, err, &permanent)
}

func TestInsufficientDataError_Message(t *testing.T) {
	err := &InsufficientDataError{Symbol: "BTCUSDT", Need: 50, Got: 10}
	require.Contains(t, err.Error(), "BTCUSDT")
	require.Contains(t, err.Error(), "50")
	require.Contains(t, err.Error(), "10")
}

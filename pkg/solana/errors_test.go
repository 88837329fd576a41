package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeRaw(t *testing.T, s string) interface{} {
	var raw interface{}
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(s)).Decode(&raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[1,{"Custom":0}]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(0), *e.InstructionError().CustomError())

	var custom CustomError
	assert.True(t, errors.As(e.InstructionError(), &custom))

	e, err = ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"InvalidInstructionData"]}`))
	require.NoError(t, err)
	assert.Equal(t, InstructionErrorInvalidInstructionData, e.InstructionError().ErrorKey())
	assert.Equal(t, "Error processing Instruction 0: InvalidInstructionData", e.Error())

	e, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseTransactionError(decodeRaw(t, `{"a":1,"b":2}`))
	assert.Error(t, err)

	_, err = ParseTransactionError(decodeRaw(t, `5`))
	assert.Error(t, err)
}

func TestParseRPCError(t *testing.T) {
	e, err := ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": decodeRaw(t, `"InsufficientFundsForFee"`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInsufficientFundsForFee, e.ErrorKey())

	e, err = ParseRPCError(&jsonrpc.RPCError{Data: map[string]interface{}{}})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Data: "nope"})
	assert.Error(t, err)
}

func TestTransactionErrorConstructors(t *testing.T) {
	e := NewTransactionError(TransactionErrorDuplicateSignature)
	assert.Equal(t, decodeRaw(t, `"DuplicateSignature"`), e.raw)

	e, err := TransactionErrorFromInstructionError(&InstructionError{
		Index: 0,
		Err:   errors.New(string(InstructionErrorInvalidArgument)),
	})
	require.NoError(t, err)
	assert.Equal(t, decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`), e.raw)

	e, err = TransactionErrorFromInstructionError(&InstructionError{
		Index: 2,
		Err:   CustomError(3),
	})
	require.NoError(t, err)
	assert.Equal(t, decodeRaw(t, `{"InstructionError":[2,{"Custom":3}]}`), e.raw)

	encoded, err := e.JSONString()
	require.NoError(t, err)
	assert.JSONEq(t, `{"InstructionError":[2,{"Custom":3}]}`, encoded)
}

func TestParseJSONNumber(t *testing.T) {
	for i, c := range []interface{}{"1", 1.0, json.Number("1")} {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}

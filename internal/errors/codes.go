package errors

import "connectrpc.com/connect"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Engine errors
	CodeEmptyPool         Code = "EMPTY_POOL"
	CodeSelfPair          Code = "SELF_PAIR"
	CodeInvalidStat       Code = "INVALID_STAT"
	CodeStorageConflict   Code = "STORAGE_CONFLICT"
	CodeInvalidRarity     Code = "INVALID_RARITY"
	CodeInvalidRarityRate Code = "INVALID_RARITY_TABLE"

	// Request errors
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeForbidden    Code = "FORBIDDEN"

	// Storage errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeCardNotOwned Code = "CARD_NOT_OWNED"
)

// ConnectCode maps the error code to the RPC status it is reported with.
func (c Code) ConnectCode() connect.Code {
	switch c {
	case CodeSelfPair, CodeInvalidStat, CodeInvalidRarity, CodeInvalidRarityRate, CodeInvalidInput:
		return connect.CodeInvalidArgument
	case CodeEmptyPool, CodeCardNotOwned:
		return connect.CodeFailedPrecondition
	case CodeStorageConflict:
		return connect.CodeAborted
	case CodeForbidden:
		return connect.CodePermissionDenied
	case CodeNotFound:
		return connect.CodeNotFound
	default:
		return connect.CodeInternal
	}
}

package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrInvalidFieldName  = errors.New("invalid field name")
	ErrInvalidIncrement  = errors.New("invalid increment")
	ErrIncrementInSet    = errors.New("increments are only allowed in updates")
	ErrNoFieldsToUpdate  = errors.New("at least one field must be provided for update")
	ErrEmptyBatch        = errors.New("batch cannot be empty")
	ErrBatchTooLarge     = errors.New("batch is too large")
	ErrInvalidWriteKind  = errors.New("invalid batch write kind")
)

package buildsystem

import (
	"encoding/binary"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/engine"
)

// ValueKind tags the union of build outcomes.
type ValueKind uint8

const (
	// ValueInvalid is an indeterminate result forcing recomputation.
	ValueInvalid ValueKind = iota
	// ValueVirtualInput is the result of a virtual (non-file) input node.
	ValueVirtualInput
	// ValueExistingInput carries the file info of an input that exists.
	ValueExistingInput
	// ValueMissingInput marks an input with no file behind it.
	ValueMissingInput
	// ValueFailedInput marks a node whose producer failed.
	ValueFailedInput
	// ValueSuccessfulCommand carries per-output file infos and the
	// command signature.
	ValueSuccessfulCommand
	// ValueFailedCommand marks a command that ran and failed.
	ValueFailedCommand
	// ValueSkippedCommand marks a command not run due to missing or
	// failed inputs, or cancellation.
	ValueSkippedCommand
	// ValueTarget is the result of a target task.
	ValueTarget
)

// BuildValue is a decoded build system value: a tag plus, for the kinds
// that carry one, output file infos and a command signature.
type BuildValue struct {
	Kind        ValueKind
	OutputInfos []domain.FileInfo
	Signature   uint64
}

// MakeInvalidValue returns an Invalid value.
func MakeInvalidValue() BuildValue { return BuildValue{Kind: ValueInvalid} }

// MakeVirtualInputValue returns a VirtualInput value.
func MakeVirtualInputValue() BuildValue { return BuildValue{Kind: ValueVirtualInput} }

// MakeExistingInputValue returns an ExistingInput value carrying info.
// The info must describe an existing filesystem object.
func MakeExistingInputValue(info domain.FileInfo) BuildValue {
	return BuildValue{Kind: ValueExistingInput, OutputInfos: []domain.FileInfo{info}}
}

// MakeMissingInputValue returns a MissingInput value.
func MakeMissingInputValue() BuildValue { return BuildValue{Kind: ValueMissingInput} }

// MakeFailedInputValue returns a FailedInput value.
func MakeFailedInputValue() BuildValue { return BuildValue{Kind: ValueFailedInput} }

// MakeSuccessfulCommandValue returns a SuccessfulCommand value with one
// file info per declared output and the command's signature.
func MakeSuccessfulCommandValue(outputInfos []domain.FileInfo, signature uint64) BuildValue {
	return BuildValue{Kind: ValueSuccessfulCommand, OutputInfos: outputInfos, Signature: signature}
}

// MakeFailedCommandValue returns a FailedCommand value.
func MakeFailedCommandValue() BuildValue { return BuildValue{Kind: ValueFailedCommand} }

// MakeSkippedCommandValue returns a SkippedCommand value.
func MakeSkippedCommandValue() BuildValue { return BuildValue{Kind: ValueSkippedCommand} }

// MakeTargetValue returns a Target value.
func MakeTargetValue() BuildValue { return BuildValue{Kind: ValueTarget} }

// IsInvalid reports whether the value is Invalid.
func (v BuildValue) IsInvalid() bool { return v.Kind == ValueInvalid }

// IsVirtualInput reports whether the value is VirtualInput.
func (v BuildValue) IsVirtualInput() bool { return v.Kind == ValueVirtualInput }

// IsExistingInput reports whether the value is ExistingInput.
func (v BuildValue) IsExistingInput() bool { return v.Kind == ValueExistingInput }

// IsMissingInput reports whether the value is MissingInput.
func (v BuildValue) IsMissingInput() bool { return v.Kind == ValueMissingInput }

// IsFailedInput reports whether the value is FailedInput.
func (v BuildValue) IsFailedInput() bool { return v.Kind == ValueFailedInput }

// IsSuccessfulCommand reports whether the value is SuccessfulCommand.
func (v BuildValue) IsSuccessfulCommand() bool { return v.Kind == ValueSuccessfulCommand }

// IsFailedCommand reports whether the value is FailedCommand.
func (v BuildValue) IsFailedCommand() bool { return v.Kind == ValueFailedCommand }

// IsSkippedCommand reports whether the value is SkippedCommand.
func (v BuildValue) IsSkippedCommand() bool { return v.Kind == ValueSkippedCommand }

// OutputInfo returns the value's sole file info. Valid only for
// ExistingInput and single-output SuccessfulCommand values.
func (v BuildValue) OutputInfo() domain.FileInfo {
	return v.OutputInfos[0]
}

// ToData encodes the value as a single tag byte plus the fixed payload
// of its kind.
func (v BuildValue) ToData() engine.ValueType {
	buf := []byte{byte(v.Kind)}
	switch v.Kind {
	case ValueExistingInput:
		buf = v.OutputInfos[0].Append(buf)
	case ValueSuccessfulCommand:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.OutputInfos)))
		for _, info := range v.OutputInfos {
			buf = info.Append(buf)
		}
		buf = binary.LittleEndian.AppendUint64(buf, v.Signature)
	}
	return buf
}

// BuildValueFromData decodes an engine value.
func BuildValueFromData(data engine.ValueType) (BuildValue, error) {
	if len(data) == 0 {
		return BuildValue{}, domain.ErrTruncatedValue
	}
	kind := ValueKind(data[0])
	rest := []byte(data[1:])

	switch kind {
	case ValueInvalid, ValueVirtualInput, ValueMissingInput, ValueFailedInput,
		ValueFailedCommand, ValueSkippedCommand, ValueTarget:
		return BuildValue{Kind: kind}, nil

	case ValueExistingInput:
		info, _, err := domain.DecodeFileInfo(rest)
		if err != nil {
			return BuildValue{}, err
		}
		return MakeExistingInputValue(info), nil

	case ValueSuccessfulCommand:
		if len(rest) < 2 {
			return BuildValue{}, domain.ErrTruncatedValue
		}
		count := binary.LittleEndian.Uint16(rest)
		rest = rest[2:]
		infos := make([]domain.FileInfo, count)
		var err error
		for i := range infos {
			infos[i], rest, err = domain.DecodeFileInfo(rest)
			if err != nil {
				return BuildValue{}, err
			}
		}
		if len(rest) < 8 {
			return BuildValue{}, domain.ErrTruncatedValue
		}
		return MakeSuccessfulCommandValue(infos, binary.LittleEndian.Uint64(rest)), nil
	}

	return BuildValue{}, domain.ErrUnknownValueKind
}

// valueFromData decodes a value produced by this build system; a
// malformed payload degrades to Invalid, which never validates.
func valueFromData(data engine.ValueType) BuildValue {
	v, err := BuildValueFromData(data)
	if err != nil {
		return MakeInvalidValue()
	}
	return v
}

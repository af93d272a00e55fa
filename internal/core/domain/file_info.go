package domain

import (
	"encoding/binary"

	"go.trai.ch/zerr"
)

// FileKind classifies the filesystem object a FileInfo describes.
type FileKind uint8

const (
	// FileKindMissing indicates the path does not exist.
	FileKindMissing FileKind = iota
	// FileKindFile indicates a regular file.
	FileKindFile
	// FileKindDirectory indicates a directory.
	FileKindDirectory
)

// FileInfoSize is the encoded size of a FileInfo in bytes.
const FileInfoSize = 1 + 8 + 8 + 8 + 8 + 8

// FileInfo is the observable identity of a filesystem object. Two
// FileInfos compare equal iff every field matches; a missing entry
// compares equal only to another missing entry.
type FileInfo struct {
	Kind        FileKind
	Device      uint64
	Inode       uint64
	Size        uint64
	ModTimeSec  int64
	ModTimeNsec uint64
}

// IsMissing reports whether the described path did not exist.
func (fi FileInfo) IsMissing() bool {
	return fi.Kind == FileKindMissing
}

// IsDirectory reports whether the described path is a directory.
func (fi FileInfo) IsDirectory() bool {
	return fi.Kind == FileKindDirectory
}

// Equal reports field-wise equality.
func (fi FileInfo) Equal(other FileInfo) bool {
	return fi == other
}

// Append encodes the FileInfo onto buf and returns the extended slice.
func (fi FileInfo) Append(buf []byte) []byte {
	buf = append(buf, byte(fi.Kind))
	buf = binary.LittleEndian.AppendUint64(buf, fi.Device)
	buf = binary.LittleEndian.AppendUint64(buf, fi.Inode)
	buf = binary.LittleEndian.AppendUint64(buf, fi.Size)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(fi.ModTimeSec))
	buf = binary.LittleEndian.AppendUint64(buf, fi.ModTimeNsec)
	return buf
}

// DecodeFileInfo decodes a FileInfo from the front of data and returns
// the remainder.
func DecodeFileInfo(data []byte) (FileInfo, []byte, error) {
	if len(data) < FileInfoSize {
		return FileInfo{}, nil, zerr.With(zerr.With(zerr.Wrap(ErrTruncatedValue, "unable to decode file info"), "have", len(data)), "need", FileInfoSize)
	}
	fi := FileInfo{
		Kind:        FileKind(data[0]),
		Device:      binary.LittleEndian.Uint64(data[1:]),
		Inode:       binary.LittleEndian.Uint64(data[9:]),
		Size:        binary.LittleEndian.Uint64(data[17:]),
		ModTimeSec:  int64(binary.LittleEndian.Uint64(data[25:])),
		ModTimeNsec: binary.LittleEndian.Uint64(data[33:]),
	}
	return fi, data[FileInfoSize:], nil
}

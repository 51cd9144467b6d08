// Package asar reads and writes Electron asar archives, the single-file
// container an application's sources are shipped in.
//
// Layout:
//
//	uint32 4 | uint32 headerSize          size pickle
//	uint32 payload | int32 len | JSON     header pickle, padded to 4 bytes
//	file contents                          concatenated, offsets relative to here
//
// The JSON header is a tree of {"files": {...}} directories, file entries
// with "size", "offset" (a decimal string), optional "executable",
// "unpacked" and "integrity", and {"link": "..."} symlinks whose targets are
// relative to the archive root.
//
// Files marked unpacked are stored beside the archive in <archive>.unpacked.
// Pack keeps that split: a file that already exists in the .unpacked
// directory is recorded as unpacked instead of being copied into the
// archive, so native modules stay loadable after a repack.
package asar

// Package bundle packs a renderer asset tree into a single zip buffer and
// unpacks such a buffer into an in-memory virtual-path mapping.
//
// Pack walks the tree in lexical order and stamps every entry with the same
// modification time, so packing an unchanged tree twice yields identical
// bytes. Only regular files are stored; Unpack skips any directory entries
// written by other tools.
package bundle

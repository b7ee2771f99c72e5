// Package fs abstracts the file operations of the local blob store so that
// tests can inject I/O failures.
//
//   - [LocalFS]: the os-backed implementation, available as [Default]
//   - [FaultyFS]: wraps a FileSystem and fails writes, syncs, closes or
//     renames of files matching a name pattern
//
// Tests can inject a FaultyFS to check that a failed write never leaves a
// partial blob behind:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("result.json", fs.Fault{FailOnSync: true, FailAfterBytes: -1})
//	store := blobstore.NewLocalStoreFS(dir, ffs)
package fs

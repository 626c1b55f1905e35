// Package manifest ingests dataset manifests into the work queue.
//
// A manifest is headerless CSV with columns id,start,end,x_center,y_center.
// Only the first three matter here: rows shorter than the configured clip
// duration are skipped, and accepted rows enqueue a fetch for a window of
// exactly that duration centered inside [start, end]. Face positions come
// from detection later, so the manifest's center columns are ignored.
package manifest

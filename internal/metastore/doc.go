// Package metastore implements the metadata persistence contract LogDev's
// superblock depends on: add_sub_sb/update_sub_sb/is_aligned_buf_needed.
// In place of a meta_blk_found callback, LogDev looks its superblock up by
// name with Find on restart.
//
// PebbleStore is the persistent implementation, backed by
// internal/storage/pebble; MemStore is an in-memory one for tests. PebbleStore stores each named sub-superblock (LogDev has
// exactly one, "LOG_DEV") as a single Pebble key; persist() is a point
// write, not a range scan, so batched persists stay cheap.
package metastore

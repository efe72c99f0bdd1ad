// Package domain models the kingdom world state document and the rules the
// lifecycle enforces on it: structural validation of engine proposals and the
// ordered compaction pipeline that keeps the document inside its size budget.
//
// The document is held as raw JSON bytes. Known substructures (kingdom name,
// events log, compaction counter, context strings) are reached through typed
// accessors; every other key passes through byte-for-byte so engine-authored
// fields survive round trips untouched.
package domain

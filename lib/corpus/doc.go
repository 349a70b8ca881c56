// Package corpus stores encoded sample payloads so that later builds can
// prove they still decode what earlier builds wrote.
//
// Payloads live in a pebble database under keys of the form
// "<behavior>/<shape>/<ksuid>". Record encodes the canonical Samples with a
// serializer and stores them, Check decodes every payload of that behavior
// again and compares it with the samples. Behaviors without absent
// collections are compared with the collapsed samples. Verify runs the same
// comparison on a fresh in-memory encoding without touching the database.
package corpus

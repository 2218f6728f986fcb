// Package normalize converts provider-specific game records into canonical GameEvents.
//
// Each provider declares a FieldMap naming where the canonical fields live in its records
// (dotted paths reach into nested objects). Records that cannot be normalized are reported
// as *NormalizationError and do not stop the rest of the snapshot.
package normalize

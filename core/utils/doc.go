// Package utils provides conversion helpers for loosely typed provider payloads.
// Upstream feeds encode the same field as a number in one response and a string in
// the next; these helpers make the normalizer indifferent to that.
package utils

/*
Package observability turns dispatch events into logs and metrics.

Both helpers return a domain.Hooks value; combine them with domain.Merge and
pass the result to arbor.WithHooks.
*/
package observability

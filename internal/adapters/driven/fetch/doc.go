// Package fetch implements the page fetcher used by the sync services.
//
// The client only talks to one origin over HTTPS. Relative paths are
// resolved against it, and redirects that leave it are refused. Connection
// resets and unresolvable host names are retried with exponential backoff;
// any other failure, including every non-2xx response, is returned as is.
package fetch

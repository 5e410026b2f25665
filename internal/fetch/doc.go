// Package fetch wraps the HTTP access mlhub needs: reading catalogs and
// descriptors, probing URLs, detecting download file names, and saving
// downloads atomically with an optional progress indicator.
package fetch

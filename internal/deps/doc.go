// Package deps installs the dependencies a model package declares: system
// packages through apt, R packages through Rscript, Python packages through
// pip, apt or conda, and data files downloaded from URLs or repositories.
package deps

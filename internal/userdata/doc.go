// Package userdata manages the local package root (~/.mlhub/ by default):
// where installed packages, their caches, archives, per-model settings and
// the completion word lists live. It also provides the layout and
// prerequisite checks behind `ml doctor`.
package userdata

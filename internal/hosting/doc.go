// Package hosting interprets repository references and URLs on GitHub,
// GitLab and Bitbucket, composes the download URLs for their archives and
// raw files, and clones private repositories over SSH.
//
// A reference has the form
//
//	[github:|gitlab:|bitbucket:][@sshhost:]owner/repo[@ref|#pr][:path]
//
// where a bare owner/repo means GitHub.
package hosting

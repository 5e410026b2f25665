package hosting

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mlhub-labs/mlhub/internal/archive"
)

// Host identifies a repository hosting service.
type Host string

const (
	GitHub    Host = "github"
	GitLab    Host = "gitlab"
	Bitbucket Host = "bitbucket"
)

var hostDomains = map[Host][]string{
	GitHub:    {"github.com", "githubusercontent.com"},
	GitLab:    {"gitlab.com"},
	Bitbucket: {"bitbucket.org"},
}

var sshHosts = map[Host]string{
	GitHub:    "github.com",
	GitLab:    "gitlab.com",
	Bitbucket: "bitbucket.org",
}

// Ref is a parsed repository location. An empty Ref field means the
// default branch, which Service.Resolve fills in.
type Ref struct {
	Host    Host
	SSHHost string
	Owner   string
	Repo    string
	Ref     string
	Path    string
	// Source is the string the Ref was parsed from.
	Source string
}

var urlPattern = regexp.MustCompile(`https?:`)

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool { return urlPattern.MatchString(s) }

// hostOfURL maps a URL's registrable domain to a Host.
func hostOfURL(u string) (Host, bool) {
	parts := strings.Split(strings.ToLower(u), "/")
	if len(parts) < 3 {
		return "", false
	}
	labels := strings.Split(parts[2], ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	domain := strings.Join(labels, ".")
	for h, domains := range hostDomains {
		for _, d := range domains {
			if d == domain {
				return h, true
			}
		}
	}
	return "", false
}

// IsRepoURL reports whether s is a URL on a known hosting service.
func IsRepoURL(s string) bool {
	if !IsURL(s) {
		return false
	}
	_, ok := hostOfURL(s)
	return ok
}

// IsRepoRef reports whether s is a repository reference rather than a
// plain path or package name.
func IsRepoRef(s string) bool {
	first, _, _ := strings.Cut(strings.ToLower(s), ":")
	if strings.Contains(first, "/") {
		return strings.ContainsAny(s, ":@#")
	}
	name, _, _ := strings.Cut(first, "@")
	_, ok := hostDomains[Host(name)]
	return ok
}

// Parse interprets a repository reference or a repository URL.
func Parse(s string) (*Ref, error) {
	src := strings.TrimSpace(s)
	var host Host
	if IsURL(src) {
		h, ok := hostOfURL(src)
		if !ok {
			return nil, fmt.Errorf("unrecognized repository host: %s", s)
		}
		host = h
	} else {
		first, _, _ := strings.Cut(strings.ToLower(src), ":")
		first, _, _ = strings.Cut(first, "@")
		host = Host(first)
		if strings.Contains(first, "/") {
			host = GitHub
		}
		if _, ok := hostDomains[host]; !ok {
			return nil, fmt.Errorf("unrecognized repository reference: %s", s)
		}
	}

	r := &Ref{Host: host, SSHHost: sshHosts[host], Source: s}
	rest := r.stripPrefix(src)

	var err error
	if IsURL(rest) {
		err = r.parseURL(rest)
	} else {
		err = r.parseRef(rest)
	}
	if err != nil {
		return nil, err
	}
	r.Path = strings.TrimSuffix(r.Path, "/")
	return r, nil
}

// stripPrefix removes "host:" or "host@sshhost:" and records the ssh host.
func (r *Ref) stripPrefix(s string) string {
	prefix := string(r.Host)
	if len(s) <= len(prefix) || !strings.HasPrefix(strings.ToLower(s), prefix) {
		return s
	}
	switch s[len(prefix)] {
	case '@':
		colon := strings.Index(s, ":")
		if colon < 0 {
			return s
		}
		r.SSHHost = s[len(prefix)+1 : colon]
		return strings.TrimSpace(s[colon+1:])
	case ':':
		return strings.TrimSpace(s[len(prefix)+1:])
	}
	return s
}

func (r *Ref) parseRef(s string) error {
	loc, path, _ := strings.Cut(s, ":")
	r.Path = path

	owner, repo, ok := strings.Cut(loc, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("malformed repository reference: %s", r.Source)
	}
	r.Owner = owner

	if name, ref, ok := strings.Cut(repo, "@"); ok {
		r.Repo, r.Ref = name, ref
	} else if name, pr, ok := strings.Cut(repo, "#"); ok {
		r.Repo, r.Ref = name, pullRef(r.Host, pr)
	} else {
		r.Repo = repo
	}
	return nil
}

func pullRef(h Host, n string) string {
	switch h {
	case GitLab:
		return "merge_requests/" + n + "/head"
	case Bitbucket:
		return "pull-requests/" + n + "/head"
	}
	return "pull/" + n + "/head"
}

func (r *Ref) parseURL(u string) error {
	parts := strings.Split(u, "/")
	if len(parts) < 5 {
		return fmt.Errorf("malformed repository URL: %s", u)
	}
	seg := parts[3:]
	r.Owner, r.Repo = seg[0], seg[1]
	seg = seg[2:]
	for len(seg) > 0 && seg[len(seg)-1] == "" {
		seg = seg[:len(seg)-1]
	}

	if len(seg) == 0 {
		r.Repo = strings.TrimSuffix(r.Repo, ".git")
		return nil
	}

	at := func(i int) string {
		if i < len(seg) {
			return seg[i]
		}
		return ""
	}
	joinFrom := func(i int) string {
		if i < len(seg) {
			return strings.Join(seg[i:], "/")
		}
		return ""
	}

	switch r.Host {
	case GitHub:
		switch seg[0] {
		case "blob", "commit", "raw", "tree":
			r.Ref, r.Path = at(1), joinFrom(2)
		case "releases":
			r.Ref = at(2)
		case "archive":
			r.Ref = archive.TrimExt(at(1))
		case "pull":
			r.Ref = "pull/" + at(1) + "/head"
		default:
			r.Ref, r.Path = seg[0], joinFrom(1)
		}
	case GitLab:
		switch {
		case seg[0] == "blob" || seg[0] == "commit" || seg[0] == "raw" || seg[0] == "tree":
			r.Ref = at(1)
			r.Path, _, _ = strings.Cut(joinFrom(2), "?")
		case seg[0] == "-" && at(1) == "archive":
			r.Ref = at(2)
		case seg[0] == "-" && at(1) == "merge_requests", seg[0] == "merge_requests":
			n := at(1)
			if seg[0] == "-" {
				n = at(2)
			}
			r.Ref = "merge_requests/" + n + "/head"
		}
	case Bitbucket:
		switch seg[0] {
		case "branch", "commits", "raw", "src":
			r.Ref, _, _ = strings.Cut(at(1), "?")
			r.Path = joinFrom(2)
		case "get":
			r.Ref = archive.TrimExt(at(1))
		case "pull-requests":
			r.Ref = "pull-requests/" + at(1) + "/head"
		}
	}
	return nil
}

// Name is the last component of Path, or the repository name.
func (r *Ref) Name() string {
	if r.Path != "" {
		return r.Path[strings.LastIndex(r.Path, "/")+1:]
	}
	return r.Repo
}

// IsPR reports whether the ref names a pull or merge request.
func (r *Ref) IsPR() bool {
	return strings.HasPrefix(r.Ref, "pull/") ||
		strings.HasPrefix(r.Ref, "merge_requests/") ||
		strings.HasPrefix(r.Ref, "pull-requests/")
}

// SSHCloneURL is the git URL used to clone a private repository.
func (r *Ref) SSHCloneURL() string {
	return fmt.Sprintf("git@%s:%s/%s.git", r.SSHHost, r.Owner, r.Repo)
}

func (r *Ref) String() string {
	s := fmt.Sprintf("%s:%s/%s", r.Host, r.Owner, r.Repo)
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	if r.Path != "" {
		s += ":" + r.Path
	}
	return s
}

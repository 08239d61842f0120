// Copyright 2019 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// URL identifies a charm or bundle in the charm store. The canonical
// form is
//
//	cs:[~user/][series/]name[-revision]
//
// where series is "bundle" for bundles. A URL with Revision == -1
// refers to whatever revision a channel currently points at.
type URL struct {
	Schema   string
	User     string
	Series   string
	Name     string
	Revision int
}

var validName = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ParseURL parses a charm store URL. The cs: schema is assumed when
// none is given.
func ParseURL(s string) (*URL, error) {
	if s == "" {
		return nil, errors.NotValidf("empty charm URL")
	}
	u := &URL{Schema: "cs", Revision: -1}

	rest := s
	if i := strings.Index(rest, ":"); i >= 0 {
		u.Schema = rest[:i]
		rest = rest[i+1:]
	}
	if u.Schema != "cs" && u.Schema != "local" {
		return nil, errors.NotValidf("charm URL schema %q", u.Schema)
	}

	parts := strings.Split(rest, "/")
	if len(parts) > 3 {
		return nil, errors.NotValidf("charm URL %q", s)
	}
	if strings.HasPrefix(parts[0], "~") {
		u.User = parts[0][1:]
		if u.User == "" {
			return nil, errors.NotValidf("empty user in charm URL %q", s)
		}
		parts = parts[1:]
	}
	switch len(parts) {
	case 1:
	case 2:
		u.Series = parts[0]
		parts = parts[1:]
	default:
		return nil, errors.NotValidf("charm URL %q", s)
	}

	u.Name = parts[0]
	if i := strings.LastIndex(u.Name, "-"); i > 0 {
		if rev, err := strconv.Atoi(u.Name[i+1:]); err == nil {
			u.Revision = rev
			u.Name = u.Name[:i]
		}
	}
	if !validName.MatchString(u.Name) {
		return nil, errors.NotValidf("charm name %q", u.Name)
	}
	return u, nil
}

func (u *URL) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", u.Schema)
	if u.User != "" {
		fmt.Fprintf(&b, "~%s/", u.User)
	}
	if u.Series != "" {
		fmt.Fprintf(&b, "%s/", u.Series)
	}
	b.WriteString(u.Name)
	if u.Revision >= 0 {
		fmt.Fprintf(&b, "-%d", u.Revision)
	}
	return b.String()
}

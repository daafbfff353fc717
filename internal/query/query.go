// Package query binds configured sections to remote objects and fills in
// member values.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jandubois/jmxcheck/internal/config"
	"github.com/jandubois/jmxcheck/internal/remote"
	"github.com/jandubois/jmxcheck/internal/vars"
)

// Options control how sections are connected and queried.
type Options struct {
	Defaults config.Defaults
	Env      vars.Env

	// Pattern, when set, replaces each section's own pattern for locating
	// the object to query.
	Pattern string

	// TolerateMissing swallows per-member access errors; the member keeps no value.
	TolerateMissing bool
}

// Retriever queries remote objects for configured sections.
type Retriever struct {
	dialer remote.Dialer
	opts   Options
}

// NewRetriever creates a Retriever using dialer for every session.
func NewRetriever(dialer remote.Dialer, opts Options) *Retriever {
	if opts.Env == nil {
		opts.Env = vars.Process()
	}
	return &Retriever{dialer: dialer, opts: opts}
}

// connect opens a session for s, or with the global defaults when s is nil.
func (r *Retriever) connect(ctx context.Context, s *config.Section) (remote.Session, error) {
	url := r.opts.Defaults.URL
	user := r.opts.Defaults.User
	password := r.opts.Defaults.Password
	if s != nil {
		if s.URL != "" {
			url = s.URL
		}
		if s.User != "" {
			user = s.User
		}
		if s.Password != "" {
			password = s.Password
		}
	}
	if url == "" {
		url = config.DefaultURL
	}
	url = vars.Replace(r.opts.Env, url, false)

	var creds *remote.Credentials
	if user != "" {
		creds = &remote.Credentials{
			User:     vars.Replace(r.opts.Env, user, false),
			Password: vars.Replace(r.opts.Env, password, false),
		}
	}

	slog.Debug("opening session", "url", url, "user", user)
	return r.dialer.Open(ctx, url, creds)
}

// withSession runs fn with an open session for s. The session is closed and
// s marked disconnected on every return path.
func (r *Retriever) withSession(ctx context.Context, s *config.Section, fn func(remote.Session) error) (err error) {
	sess, err := r.connect(ctx, s)
	if err != nil {
		return err
	}
	s.Connected = true
	defer func() {
		s.Connected = false
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close session: %w", cerr)
		}
	}()
	return fn(sess)
}

// DiscoverAll adds the attributes and operations of every matched object to
// each section of doc.
func (r *Retriever) DiscoverAll(ctx context.Context, doc *config.Document) error {
	for _, s := range doc.Sections {
		if err := r.Discover(ctx, s); err != nil {
			return fmt.Errorf("section %s: %w", s.Name, err)
		}
	}
	return nil
}

// Discover adds the attributes and operations of every object matched by s.
func (r *Retriever) Discover(ctx context.Context, s *config.Section) error {
	return r.withSession(ctx, s, func(sess remote.Session) error {
		return discover(ctx, sess, s)
	})
}

func discover(ctx context.Context, sess remote.Session, s *config.Section) error {
	names, err := sess.ListObjects(ctx)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	for _, name := range names {
		slog.Debug("checking object", "object", name)
		if !s.Matches(name.String()) {
			continue
		}
		slog.Debug("match found", "section", s.Name, "object", name)
		info, err := sess.Describe(ctx, name)
		if err != nil {
			return fmt.Errorf("describe %s: %w", name, err)
		}
		addMembers(s, info.Attributes, config.Attribute)
		addMembers(s, info.Operations, config.Operation)
	}
	return nil
}

func addMembers(s *config.Section, infos []remote.MemberInfo, kind config.Kind) {
	for _, info := range infos {
		typ, err := config.TypeFromRemote(info.Type)
		if err != nil {
			slog.Warn("unsupported return type",
				"section", s.Name, kind.String(), info.Name, "type", info.Type)
		}
		slog.Debug("member found", "kind", kind, "name", info.Name, "type", typ, "raw_type", info.Type)
		s.Add(config.NewMember(info.Name, kind, typ))
	}
}

// Query fills in member values. With sectionRef set only the first matching
// section is queried, otherwise all of them. With memberRef set only that
// member is read.
func (r *Retriever) Query(ctx context.Context, doc *config.Document, sectionRef, memberRef string) error {
	sections := doc.Sections
	if sectionRef != "" {
		s, err := doc.Lookup(sectionRef)
		if err != nil {
			return err
		}
		sections = []*config.Section{s}
	}

	for _, s := range sections {
		err := r.withSession(ctx, s, func(sess remote.Session) error {
			if s.Members.Len() == 0 {
				if err := discover(ctx, sess, s); err != nil {
					return err
				}
			}
			return r.querySection(ctx, sess, s, memberRef)
		})
		if err != nil {
			return fmt.Errorf("section %s: %w", s.Name, err)
		}
	}
	return nil
}

func (r *Retriever) querySection(ctx context.Context, sess remote.Session, s *config.Section, memberRef string) error {
	if err := r.locateObject(ctx, sess, s); err != nil {
		return err
	}
	slog.Debug("querying object", "section", s.Name, "object", s.Object)

	if memberRef != "" {
		m, err := s.Member(memberRef)
		if err != nil {
			return err
		}
		return r.fetch(ctx, sess, s, m)
	}
	for _, m := range s.Members.All() {
		if err := r.fetch(ctx, sess, s, m); err != nil {
			return err
		}
	}
	return nil
}

// locateObject binds a pattern-selected section to the first matching object.
func (r *Retriever) locateObject(ctx context.Context, sess remote.Session, s *config.Section) error {
	var sel config.Selector
	switch {
	case r.opts.Pattern != "":
		p, err := config.CompilePattern(r.opts.Pattern)
		if err != nil {
			return err
		}
		sel = p
	case s.Regexp != "":
		sel = s.Selector()
	default:
		return nil
	}

	names, err := sess.ListObjects(ctx)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	for _, name := range names {
		if sel.Match(name.String()) {
			slog.Debug("match found", "section", s.Name, "object", name)
			s.SetObjectName(name)
			return nil
		}
	}
	return fmt.Errorf("%w: no object matches %s", remote.ErrInstanceNotFound, sel)
}

// fetch reads an attribute or invokes an operation and stores the value.
func (r *Retriever) fetch(ctx context.Context, sess remote.Session, s *config.Section, m *config.Member) error {
	name, err := s.ObjectName()
	if err != nil {
		return err
	}

	var value any
	switch m.Kind {
	case config.Operation:
		value, err = sess.Invoke(ctx, name, m.Name)
	default:
		value, err = sess.GetAttribute(ctx, name, m.Name)
	}
	if err != nil {
		var accessErr *remote.AccessError
		if r.opts.TolerateMissing && errors.As(err, &accessErr) {
			slog.Debug("ignoring missing member", "section", s.Name, "member", m.Name, "error", err)
			return nil
		}
		return err
	}
	if value != nil {
		m.Value = value
	}
	return nil
}

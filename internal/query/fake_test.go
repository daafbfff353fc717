package query

import (
	"context"
	"fmt"

	"github.com/jandubois/jmxcheck/internal/remote"
)

type fakeMember struct {
	typ   string
	value any
	fail  bool
}

type fakeObject struct {
	name       remote.ObjectName
	attributes map[string]fakeMember
	attrOrder  []string
	operations map[string]fakeMember
	opOrder    []string
}

func newFakeObject(name string) *fakeObject {
	return &fakeObject{
		name:       remote.ObjectName(name),
		attributes: map[string]fakeMember{},
		operations: map[string]fakeMember{},
	}
}

func (o *fakeObject) attr(name, typ string, value any) *fakeObject {
	o.attributes[name] = fakeMember{typ: typ, value: value}
	o.attrOrder = append(o.attrOrder, name)
	return o
}

func (o *fakeObject) brokenAttr(name, typ string) *fakeObject {
	o.attributes[name] = fakeMember{typ: typ, fail: true}
	o.attrOrder = append(o.attrOrder, name)
	return o
}

func (o *fakeObject) op(name, typ string, value any) *fakeObject {
	o.operations[name] = fakeMember{typ: typ, value: value}
	o.opOrder = append(o.opOrder, name)
	return o
}

// fakeDialer records every session it opens.
type fakeDialer struct {
	objects  []*fakeObject
	openErr  error
	opened   []string
	creds    []*remote.Credentials
	sessions []*fakeSession
}

func (d *fakeDialer) Open(ctx context.Context, url string, creds *remote.Credentials) (remote.Session, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened = append(d.opened, url)
	d.creds = append(d.creds, creds)
	s := &fakeSession{dialer: d}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) allClosed() bool {
	for _, s := range d.sessions {
		if !s.closed {
			return false
		}
	}
	return true
}

type fakeSession struct {
	dialer *fakeDialer
	closed bool
}

func (s *fakeSession) find(name remote.ObjectName) (*fakeObject, error) {
	for _, o := range s.dialer.objects {
		if o.name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", remote.ErrInstanceNotFound, name)
}

func (s *fakeSession) ListObjects(ctx context.Context) ([]remote.ObjectName, error) {
	var names []remote.ObjectName
	for _, o := range s.dialer.objects {
		names = append(names, o.name)
	}
	return names, nil
}

func (s *fakeSession) Describe(ctx context.Context, name remote.ObjectName) (*remote.ObjectInfo, error) {
	o, err := s.find(name)
	if err != nil {
		return nil, err
	}
	info := &remote.ObjectInfo{}
	for _, n := range o.attrOrder {
		info.Attributes = append(info.Attributes, remote.MemberInfo{Name: n, Type: o.attributes[n].typ})
	}
	for _, n := range o.opOrder {
		info.Operations = append(info.Operations, remote.MemberInfo{Name: n, Type: o.operations[n].typ})
	}
	return info, nil
}

func (s *fakeSession) GetAttribute(ctx context.Context, name remote.ObjectName, attribute string) (any, error) {
	return s.get(name, attribute, false)
}

func (s *fakeSession) Invoke(ctx context.Context, name remote.ObjectName, operation string) (any, error) {
	return s.get(name, operation, true)
}

func (s *fakeSession) get(name remote.ObjectName, member string, op bool) (any, error) {
	o, err := s.find(name)
	if err != nil {
		return nil, &remote.AccessError{Object: name, Member: member, Err: err}
	}
	members := o.attributes
	if op {
		members = o.operations
	}
	m, ok := members[member]
	if !ok || m.fail {
		return nil, &remote.AccessError{Object: name, Member: member, Err: remote.ErrInstanceNotFound}
	}
	return m.value, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

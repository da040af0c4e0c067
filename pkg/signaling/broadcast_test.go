package signaling

import "testing"

func fullConn(id string) *Conn {
	c := &Conn{id: id, send: make(chan []byte, 1)}
	c.send <- []byte("stuck")
	return c
}

func TestDeliverSelectors(t *testing.T) {
	a := newTestConn("a")
	b := newTestConn("b")
	c := newTestConn("c")
	a.role = RoleHost
	rm := &Room{id: "r1", members: []*Conn{a, b, c}}

	cases := []struct {
		name string
		sel  selector
		want map[string]bool
	}{
		{"to all", toAll, map[string]bool{"a": true, "b": true, "c": true}},
		{"all except", toAllExcept("b"), map[string]bool{"a": true, "c": true}},
		{"role", toRole(RoleHost), map[string]bool{"a": true}},
		{"single peer", toPeer("c"), map[string]bool{"c": true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := deliver(rm, map[string]string{"type": "probe"}, tc.sel)
			if n != len(tc.want) {
				t.Errorf("delivered = %d, want %d", n, len(tc.want))
			}
			for _, m := range []*Conn{a, b, c} {
				got := len(m.send) > 0
				if got != tc.want[m.id] {
					t.Errorf("member %s received = %v, want %v", m.id, got, tc.want[m.id])
				}
				drain(m)
			}
		})
	}
}

func TestDeliverSkipsFullBuffers(t *testing.T) {
	open := newTestConn("open")
	stuck := fullConn("stuck")
	rm := &Room{id: "r1", members: []*Conn{open, stuck}}

	n := deliver(rm, map[string]string{"type": "probe"}, toAll)
	if n != 1 {
		t.Errorf("delivered = %d, want 1 (full buffer skipped)", n)
	}
}

func TestDeliverRawSharesPayload(t *testing.T) {
	a := newTestConn("a")
	b := newTestConn("b")
	rm := &Room{id: "r1", members: []*Conn{a, b}}

	payload := []byte(`{"type":"offer","from":"x"}`)
	if n := deliverRaw(rm, payload, toAll); n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}
	for _, m := range []*Conn{a, b} {
		if got := string(<-m.send); got != string(payload) {
			t.Errorf("member %s frame = %s", m.id, got)
		}
	}
}

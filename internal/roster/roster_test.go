package roster

import "testing"

func TestLoadAcceptsNativeBoolIsSupervisor(t *testing.T) {
	r, err := Load([]byte(`{"users":[{"external_id":"1","email":"a@x.com","name":"A","department":"D","is_supervisor":true}]}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !r.Users[0].IsSupervisor.Bool() {
		t.Error("expected is_supervisor=true to decode truthy")
	}
}

func TestLoadAcceptsStringFormsIsSupervisor(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`"true"`, true},
		{`"1"`, true},
		{`"yes"`, true},
		{`"false"`, false},
		{`"0"`, false},
		{`"no"`, false},
		{`""`, false},
	}
	for _, tc := range cases {
		doc := []byte(`{"users":[{"external_id":"1","email":"a@x.com","name":"A","department":"D","is_supervisor":` + tc.raw + `}]}`)
		r, err := Load(doc)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", tc.raw, err)
		}
		if got := r.Users[0].IsSupervisor.Bool(); got != tc.want {
			t.Errorf("is_supervisor=%s -> Bool() = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestLoadIsSupervisorUnsetDefaultsFalse(t *testing.T) {
	r, err := Load([]byte(`{"users":[{"external_id":"1","email":"a@x.com","name":"A","department":"D"}]}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.Users[0].IsSupervisor.Bool() {
		t.Error("expected unset is_supervisor to be falsy")
	}
}

func TestLoadRejectsUnrecognizedIsSupervisorString(t *testing.T) {
	_, err := Load([]byte(`{"users":[{"external_id":"1","email":"a@x.com","name":"A","department":"D","is_supervisor":"maybe"}]}`))
	if err == nil {
		t.Fatal("expected error for unrecognized is_supervisor string")
	}
}

func TestLoadLowercasesEmailAndNormalizesName(t *testing.T) {
	r, err := Load([]byte(`{"users":[{"external_id":"1","email":"  A@X.com ","name":"  Jane  ","department":"D"}]}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.Users[0].Email != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", r.Users[0].Email)
	}
	if r.Users[0].Name != "Jane" {
		t.Errorf("name = %q, want Jane", r.Users[0].Name)
	}
}

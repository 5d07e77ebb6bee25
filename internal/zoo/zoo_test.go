package zoo

import (
	"errors"
	"testing"
)

func TestFields_Validate(t *testing.T) {
	tests := []struct {
		name    string
		fields  Fields
		wantErr bool
	}{
		{name: "name and description", fields: Fields{Name: "Feeding Tour", Description: "Daily 3pm"}},
		{name: "name only", fields: Fields{Name: "Feeding Tour"}},
		{name: "empty name", fields: Fields{Description: "Daily 3pm"}, wantErr: true},
		{name: "blank name", fields: Fields{Name: "   "}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestFields_Set(t *testing.T) {
	var f Fields
	if !f.Set(FieldName, "Tour") {
		t.Fatal("Set(name) should succeed")
	}
	if !f.Set(FieldDescription, "New") {
		t.Fatal("Set(description) should succeed")
	}
	if f.Set("_id", "x") {
		t.Fatal("Set(_id) should be rejected")
	}
	if f != (Fields{Name: "Tour", Description: "New"}) {
		t.Errorf("fields = %+v", f)
	}
}

func TestService_FieldsIsACopy(t *testing.T) {
	s := Service{ID: "1", Name: "Tour", Description: "Old"}
	f := s.Fields()
	f.Description = "New"
	if s.Description != "Old" {
		t.Errorf("record mutated through Fields copy: %+v", s)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "", want: RoleAdmin},
		{in: "admin", want: RoleAdmin},
		{in: "employee", want: RoleEmployee},
		{in: "keeper", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRole_Allows(t *testing.T) {
	for _, a := range []Action{ActionList, ActionView, ActionEdit, ActionCreate, ActionDelete} {
		if !RoleAdmin.Allows(a) {
			t.Errorf("admin should be allowed to %s", a)
		}
	}
	for _, a := range []Action{ActionList, ActionView, ActionEdit} {
		if !RoleEmployee.Allows(a) {
			t.Errorf("employee should be allowed to %s", a)
		}
	}
	for _, a := range []Action{ActionCreate, ActionDelete} {
		if err := RoleEmployee.Check(a); !errors.Is(err, ErrForbidden) {
			t.Errorf("employee Check(%s) = %v, want ErrForbidden", a, err)
		}
	}
}

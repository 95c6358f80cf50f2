package schema_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/record"
)

func mustParse(t *testing.T, s string) record.Value {
	t.Helper()
	v, err := record.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return v
}

func TestDefault(t *testing.T) {
	root := schema.Default()

	if root.Name != "MASTER SERVICE AGREEMENT" {
		t.Errorf("Name = %q", root.Name)
	}
	if root.RootKey() != "MASTER_SERVICE_AGREEMENT" {
		t.Errorf("RootKey = %q, want MASTER_SERVICE_AGREEMENT", root.RootKey())
	}

	var mandatory []string
	for _, c := range root.Children {
		if c.Mandatory {
			mandatory = append(mandatory, c.Name)
		}
	}
	want := []string{"customer", "provider", "services_scope", "execution_details"}
	if diff := cmp.Diff(want, mandatory); diff != "" {
		t.Errorf("mandatory children mismatch (-want +got):\n%s", diff)
	}

	ip, ok := root.Child("intellectual_property")
	if !ok {
		t.Fatal("intellectual_property child missing")
	}
	pre, ok := ip.Child("pre_existing_ip")
	if !ok {
		t.Fatal("pre_existing_ip child missing")
	}
	var license schema.Field
	for _, f := range pre.Fields {
		if f.Name == "license_to_customer" {
			license = f
		}
	}
	if !license.Allows("None") {
		t.Errorf("license_to_customer values = %v, want None allowed", license.Values)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "name: [unclosed"},
		{"unnamed root", "type: obj"},
		{"unknown field type", "name: r\nfields:\n- name: a\n  type: money\n"},
		{"enum without values", "name: r\nfields:\n- name: a\n  type: enum\n"},
		{"duplicate field", "name: r\nfields:\n- name: a\n  type: string\n- name: a\n  type: date\n"},
		{"list node type", "name: r\nchildren:\n- name: c\n  type: list\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := schema.Load([]byte(tt.yaml)); !errors.Is(err, schema.ErrInvalidSchema) {
				t.Errorf("Load error = %v, want ErrInvalidSchema", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nda.yaml")
	doc := "name: NON DISCLOSURE AGREEMENT\nmandatory: true\nfields:\n- name: nda_id\n  type: string\n  mandatory: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	root, err := schema.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if root.Type != schema.TypeObject {
		t.Errorf("Type = %q, want default %q", root.Type, schema.TypeObject)
	}
	if root.RootKey() != "NON_DISCLOSURE_AGREEMENT" {
		t.Errorf("RootKey = %q", root.RootKey())
	}

	if _, err := schema.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDescribe(t *testing.T) {
	root, err := schema.Load([]byte(`
name: AGREEMENT
description: Top-level object
mandatory: true
fields:
- name: agreement_id
  description: unique identifier
  type: string
  mandatory: true
- name: renewal
  type: boolean
children:
- name: exhibits
  description: attached exhibits
  list: true
  fields:
  - name: kind
    type: enum
    values: [Pricing, SLA]
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := strings.Join([]string{
		"- AGREEMENT (MANDATORY)",
		"  Description: Top-level object",
		"  Type: obj",
		"  Fields:",
		"    - agreement_id: string (MANDATORY)",
		"      Description: unique identifier",
		"    - renewal: boolean",
		"  Children:",
		"  - exhibits (OPTIONAL)",
		"    Description: attached exhibits",
		"    Type: List of obj",
		"    Fields:",
		"      - kind: enum",
		"        Allowed values: Pricing, SLA",
	}, "\n")

	if diff := cmp.Diff(want, root.Describe()); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribeDefaultCoversSchema(t *testing.T) {
	text := schema.Default().Describe()
	for _, s := range []string{
		"- MASTER SERVICE AGREEMENT (MANDATORY)",
		"    - msa_id: string (MANDATORY)",
		"  - customer (MANDATORY)",
		"Allowed values: Fixed Amount, Multiple of Fees, Annual Fees, Uncapped, Per Incident",
		"Type: List of obj",
	} {
		if !strings.Contains(text, s) {
			t.Errorf("Describe missing %q", s)
		}
	}
}

func TestUnwrap(t *testing.T) {
	root := schema.Default()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"msa_id":"A"}`, `{"msa_id":"A"}`},
		{"underscore key", `{"MASTER_SERVICE_AGREEMENT":{"msa_id":"A"}}`, `{"msa_id":"A"}`},
		{"schema name key", `{"MASTER SERVICE AGREEMENT":{"msa_id":"A"}}`, `{"msa_id":"A"}`},
		{"double wrapped", `{"MASTER_SERVICE_AGREEMENT":{"MASTER_SERVICE_AGREEMENT":{"msa_id":"A"}}}`, `{"msa_id":"A"}`},
		{"siblings merged", `{"MASTER_SERVICE_AGREEMENT":{"msa_id":"A"},"version":"2"}`, `{"msa_id":"A","version":"2"}`},
		{"non-object wrapper kept", `{"MASTER_SERVICE_AGREEMENT":"yes"}`, `{"MASTER_SERVICE_AGREEMENT":"yes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := root.Unwrap(mustParse(t, tt.input))
			if !got.Equal(mustParse(t, tt.want)) {
				b, _ := got.MarshalJSON()
				t.Errorf("Unwrap = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	root := schema.Default()
	rec := mustParse(t, `{
		"msa_id": "MSA-2024-001",
		"effective_date": "2024-01-01",
		"executed_date": null,
		"nature_of_services": "IT consulting",
		"governing_law": "Delaware",
		"customer": {"legal_name": "Acme Corp", "authorized_signatory": {"title": "CEO"}},
		"provider": {"legal_name": "Globex LLC", "authorized_signatory": {"name": "Hank"}},
		"services_scope": {},
		"related_documents": {"superseded_agreements": [{"agreement_name": "Old MSA"}]}
	}`)

	var got []string
	for _, w := range root.Validate(rec) {
		got = append(got, w.Path)
	}

	want := []string{
		"executed_date",
		"customer.authorized_signatory.name",
		"execution_details",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Validate paths mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateDescendsIntoLists(t *testing.T) {
	root, err := schema.Load([]byte(`
name: R
children:
- name: items
  list: true
  fields:
  - name: id
    type: string
    mandatory: true
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	warnings := root.Validate(mustParse(t, `{"items":[{"id":"a"},{"id":null},{}]}`))
	var got []string
	for _, w := range warnings {
		got = append(got, w.String())
	}

	want := []string{
		"items[1].id: missing mandatory field",
		"items[2].id: missing mandatory field",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize(t *testing.T) {
	root := schema.Default()
	rec := mustParse(t, `{
		"customer": {"legal_name": "N/A", "entity_type": "Not Specified"},
		"intellectual_property": {
			"ownership_model": "none",
			"pre_existing_ip": {"license_to_customer": "None"}
		},
		"compliance_requirements": {
			"import_export_compliance": {"customs_duties_responsibility": "Not Applicable"}
		},
		"services_scope": {
			"service_locations": [{"value": "n/a"}, {"value": "Remote"}],
			"service_categories": ["NA", "Training"]
		},
		"dispute_resolution": {"arbitration_rules": "JAMS"}
	}`)

	got, n := root.Normalize(rec)
	if n != 4 {
		t.Errorf("normalized count = %d, want 4", n)
	}

	want := mustParse(t, `{
		"customer": {"legal_name": "N/A", "entity_type": null},
		"intellectual_property": {
			"ownership_model": null,
			"pre_existing_ip": {"license_to_customer": "None"}
		},
		"compliance_requirements": {
			"import_export_compliance": {"customs_duties_responsibility": "Not Applicable"}
		},
		"services_scope": {
			"service_locations": [{"value": null}, {"value": "Remote"}],
			"service_categories": [null, "Training"]
		},
		"dispute_resolution": {"arbitration_rules": "JAMS"}
	}`)

	if !got.Equal(want) {
		b, _ := got.MarshalJSON()
		t.Errorf("Normalize = %s", b)
	}
}

func TestNormalizeLeavesNonObjects(t *testing.T) {
	v := record.String("N/A")
	got, n := schema.Default().Normalize(v)
	if n != 0 || !got.Equal(v) {
		t.Errorf("Normalize(string) = %v, %d, want unchanged", got, n)
	}
}

package validation

import (
	"strings"
	"testing"

	"github.com/apidex/apidex/pkg/apidex/apperror"
)

func validInput() SubmissionInput {
	return SubmissionInput{
		Company:  "Acme Corp",
		Title:    "Payments API",
		Protocol: "HTTPS",
		Address:  "https://api.acme.example/v1",
		TagIDs:   []uint{1},
	}
}

func TestValidSubmission(t *testing.T) {
	sub, err := ValidateSubmission(validInput())
	if err != nil {
		t.Fatalf("Expected valid submission, got %v", err)
	}
	if sub.Company != "Acme Corp" {
		t.Errorf("Expected company 'Acme Corp', got %s", sub.Company)
	}
	if sub.Ports != nil {
		t.Errorf("Expected nil ports for empty field, got %v", sub.Ports)
	}
}

func TestCompanyRequired(t *testing.T) {
	in := validInput()
	in.Company = ""

	_, err := ValidateSubmission(in)
	if err == nil {
		t.Fatal("Expected validation error for empty company")
	}
	if _, ok := err.Fields["company"]; !ok {
		t.Errorf("Expected error keyed by 'company', got %v", err.Fields)
	}
}

func TestCompanyLengthBoundary(t *testing.T) {
	in := validInput()
	in.Company = strings.Repeat("a", 100)
	if _, err := ValidateSubmission(in); err != nil {
		t.Errorf("Expected 100-char company to pass, got %v", err)
	}

	in.Company = strings.Repeat("a", 101)
	if _, err := ValidateSubmission(in); err == nil {
		t.Error("Expected 101-char company to fail")
	}
}

func TestTitleLengthBoundary(t *testing.T) {
	in := validInput()
	in.Title = strings.Repeat("t", 200)
	if _, err := ValidateSubmission(in); err != nil {
		t.Errorf("Expected 200-char title to pass, got %v", err)
	}

	in.Title = strings.Repeat("t", 201)
	if _, err := ValidateSubmission(in); err == nil {
		t.Error("Expected 201-char title to fail")
	}
}

func TestDescriptionOptional(t *testing.T) {
	in := validInput()
	in.Description = ""
	if _, err := ValidateSubmission(in); err != nil {
		t.Errorf("Expected empty description to pass, got %v", err)
	}

	in.Description = strings.Repeat("d", 1001)
	if _, err := ValidateSubmission(in); err == nil {
		t.Error("Expected 1001-char description to fail")
	}
}

func TestProtocolEnum(t *testing.T) {
	for _, proto := range []string{"HTTP", "HTTPS", "gRPC", "WebSocket", "TCP", "UDP"} {
		in := validInput()
		in.Protocol = proto
		if _, err := ValidateSubmission(in); err != nil {
			t.Errorf("Expected protocol %s to pass, got %v", proto, err)
		}
	}

	in := validInput()
	in.Protocol = "FTP"
	_, err := ValidateSubmission(in)
	if err == nil {
		t.Fatal("Expected unknown protocol to fail")
	}
	if _, ok := err.Fields["protocol"]; !ok {
		t.Errorf("Expected error keyed by 'protocol', got %v", err.Fields)
	}

	// Enum match is case-sensitive
	in.Protocol = "https"
	if _, err := ValidateSubmission(in); err == nil {
		t.Error("Expected lowercase 'https' to fail")
	}
}

func TestAtLeastOneTag(t *testing.T) {
	in := validInput()
	in.TagIDs = nil

	_, err := ValidateSubmission(in)
	if err == nil {
		t.Fatal("Expected validation error for zero tags")
	}
	if _, ok := err.Fields["tag_ids"]; !ok {
		t.Errorf("Expected error keyed by 'tag_ids', got %v", err.Fields)
	}
}

func TestDuplicateTagIDsCollapse(t *testing.T) {
	in := validInput()
	in.TagIDs = []uint{3, 1, 3, 1, 2}

	sub, err := ValidateSubmission(in)
	if err != nil {
		t.Fatalf("Expected valid submission, got %v", err)
	}
	if len(sub.TagIDs) != 3 {
		t.Errorf("Expected 3 unique tag ids, got %v", sub.TagIDs)
	}
}

func TestIconURLMustBeURL(t *testing.T) {
	in := validInput()
	in.IconURL = "not a url"
	if _, err := ValidateSubmission(in); err == nil {
		t.Error("Expected invalid icon URL to fail")
	}

	in.IconURL = "https://cdn.example.com/icon.png"
	if _, err := ValidateSubmission(in); err != nil {
		t.Errorf("Expected valid icon URL to pass, got %v", err)
	}
}

func TestNormalizePorts(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{",,", nil},
		{"443", []string{"443"}},
		{"80, 443 ,8080", []string{"80", "443", "8080"}},
		{" 80,,443 ", []string{"80", "443"}},
	}

	for _, tc := range cases {
		got := NormalizePorts(tc.raw)
		if len(got) != len(tc.want) {
			t.Errorf("NormalizePorts(%q): expected %v, got %v", tc.raw, tc.want, got)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("NormalizePorts(%q): expected %v, got %v", tc.raw, tc.want, got)
				break
			}
		}
	}
}

func TestValidationErrorsAreFieldKeyed(t *testing.T) {
	in := SubmissionInput{}
	_, err := ValidateSubmission(in)
	if err == nil {
		t.Fatal("Expected validation error for empty input")
	}
	if err.Kind != apperror.KindValidation {
		t.Errorf("Expected kind validation, got %s", err.Kind)
	}
	for _, field := range []string{"company", "title", "protocol", "address", "tag_ids"} {
		if _, ok := err.Fields[field]; !ok {
			t.Errorf("Expected error for field %s, got %v", field, err.Fields)
		}
	}
}

func TestValidateTag(t *testing.T) {
	good := TagInput{Name: "Payments", Slug: "payments", Color: "#FF5733"}
	if err := ValidateTag(good); err != nil {
		t.Errorf("Expected valid tag, got %v", err)
	}

	bad := []TagInput{
		{Name: "", Slug: "payments", Color: "#FF5733"},
		{Name: strings.Repeat("n", 51), Slug: "payments", Color: "#FF5733"},
		{Name: "Payments", Slug: "Payments", Color: "#FF5733"},
		{Name: "Payments", Slug: "pay ments", Color: "#FF5733"},
		{Name: "Payments", Slug: "payments", Color: "red"},
		{Name: "Payments", Slug: "payments", Color: "#FF57"},
	}
	for i, in := range bad {
		if err := ValidateTag(in); err == nil {
			t.Errorf("Case %d: expected tag %+v to fail", i, in)
		}
	}
}

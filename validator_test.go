package rdapschema_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/rdapschema"
	"github.com/reoring/rdapschema/dataset"
	"github.com/reoring/rdapschema/findings"
	"github.com/reoring/rdapschema/ruletree"
)

const domainDoc = `{
  "objectClassName": "domain",
  "handle": "EXAMPLE-1",
  "ldhName": "example.com",
  "unicodeName": "example.com",
  "rdapConformance": ["rdap_level_0", "icann_rdap_response_profile_0"],
  "status": ["active", "client transfer prohibited"],
  "port43": "whois.example.net",
  "lang": "en",
  "links": [
    {"value": "https://rdap.example.net/domain/example.com", "rel": "self",
     "href": "https://rdap.example.net/domain/example.com", "type": "application/rdap+json"}
  ],
  "events": [
    {"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
    {"eventAction": "expiration", "eventDate": "2030-08-13T04:00:00Z"}
  ],
  "notices": [
    {"title": "Terms of Use", "description": ["Service subject to terms of use."],
     "links": [{"rel": "alternate", "href": "https://www.example.net/terms", "type": "text/html"}]}
  ],
  "secureDNS": {
    "delegationSigned": true,
    "dsData": [{"keyTag": 370, "algorithm": 13, "digestType": 2,
      "digest": "BE74359954660069D5C63D200C39F5603827D7DD02B56F120EE9F3A86764247C"}]
  },
  "nameservers": [
    {"objectClassName": "nameserver", "ldhName": "a.iana-servers.net",
     "ipAddresses": {"v4": ["199.43.135.53"], "v6": ["2620:0:2d0:200::7"]}}
  ],
  "entities": [
    {
      "objectClassName": "entity",
      "handle": "376",
      "roles": ["registrar"],
      "publicIds": [{"type": "IANA Registrar ID", "identifier": "376"}],
      "vcardArray": ["vcard", [
        ["version", {}, "text", "4.0"],
        ["fn", {}, "text", "Example Registrar"],
        ["adr", {}, "text", ["", "", "123 Street", "City", "ST", "00000", "US"]]
      ]],
      "events": [{"eventAction": "registration", "eventDate": "2000-01-01T00:00:00Z"}]
    }
  ]
}`

var (
	catalogOnce sync.Once
	catalog     *rdapschema.Catalog
	catalogErr  error
)

func builtinCatalog(t *testing.T) *rdapschema.Catalog {
	t.Helper()
	catalogOnce.Do(func() { catalog, catalogErr = rdapschema.NewCatalog(rdapschema.DefaultOptions()) })
	require.NoError(t, catalogErr)
	return catalog
}

// mutate applies edit to a decoded copy of doc and re-encodes it.
func mutate(t *testing.T, doc string, edit func(m map[string]any)) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(doc), &m))
	edit(m)
	b, err := gojson.Marshal(m)
	require.NoError(t, err)
	return string(b)
}

func validate(t *testing.T, name, doc string) (*rdapschema.Validator, bool) {
	t.Helper()
	v, err := builtinCatalog(t).NewValidator(name)
	require.NoError(t, err)
	ok, err := v.Validate(context.Background(), doc)
	require.NoError(t, err)
	return v, ok
}

func TestCatalog_Builtin(t *testing.T) {
	c := builtinCatalog(t)
	assert.Equal(t, []string{"domain", "entity", "error", "events", "help", "links", "nameserver"}, c.Names())

	_, err := c.RuleSet("autnum")
	assert.True(t, errors.Is(err, rdapschema.ErrUnknownRuleSet))
	_, err = c.NewValidator("autnum")
	assert.True(t, rdapschema.IsConfigError(err))

	rs, err := c.RuleSet("domain")
	require.NoError(t, err)
	assert.Contains(t, rs.Groups(), "stdRdapDomainLookupValidation")
	assert.Contains(t, rs.Groups(), "stdRdapEventsValidation")
	assert.Len(t, rs.Checkers(), 3)
}

func TestValidate_HappyPath(t *testing.T) {
	v, ok := validate(t, "domain", domainDoc)
	assert.True(t, ok, v.Results().Summary())
	assert.Empty(t, v.Results())

	g := v.LastRunGroups()
	assert.Empty(t, g.Failed)
	for _, name := range []string{
		"stdRdapDomainLookupValidation",
		"stdRdapEventsValidation",
		"stdRdapIPv4AddressValidation",
		"stdRdapIPv6AddressValidation",
		"stdRdapVcardPropertiesValidation",
		"stdRdapSecureDnsValidation",
	} {
		assert.Contains(t, g.Evaluated, name)
	}
	assert.Contains(t, g.NotEvaluated(), "stdRdapAsEventActorValidation")
	assert.Contains(t, g.NotEvaluated(), "stdRdapVariantsValidation")
}

func TestValidate_Idempotent(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		delete(m, "ldhName")
		m["port43"] = 43
	})
	v, err := builtinCatalog(t).NewValidator("domain")
	require.NoError(t, err)

	ok1, err := v.Validate(context.Background(), doc)
	require.NoError(t, err)
	first := v.Results()
	g1 := v.LastRunGroups()

	ok2, err := v.Validate(context.Background(), doc)
	require.NoError(t, err)
	assert.False(t, ok1)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, v.Results())
	assert.Equal(t, g1, v.LastRunGroups())
}

func TestValidate_MissingRequired(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) { delete(m, "ldhName") })
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-12202, "#/ldhName", "The ldhName element does not exist."),
	}, v.Results())
	assert.Contains(t, v.LastRunGroups().Failed, "stdRdapDomainLookupValidation")
}

func TestValidate_DuplicateKey(t *testing.T) {
	doc := `{"objectClassName": "domain", "handle": "a", "ldhName": "example.com", "handle": "b"}`
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-12212, "handle:a", "The name in the name/value pair was found more than once."),
	}, v.Results())
}

func TestValidate_InvalidJSON(t *testing.T) {
	doc := `{"objectClassName": "domain",`
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-12210, doc, "The JSON document is not syntactically valid."),
	}, v.Results())
	assert.Equal(t, []string{"stdRdapDomainLookupValidation"}, v.LastRunGroups().Failed)
}

func TestValidate_InvalidUTF8(t *testing.T) {
	doc := "{\"objectClassName\":\"domain\",\"ldhName\":\"a.com\",\"handle\":\"\xff\xfe\"}"
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-12210, doc, "The JSON document is not syntactically valid."),
	}, v.Results())
}

func TestValidate_UniquenessScopedPerArray(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		m["events"] = []any{
			map[string]any{"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
			map[string]any{"eventAction": "registration", "eventDate": "1996-08-14T04:00:00Z"},
		}
	})
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-10912, "#/events/1/eventAction:registration",
			"An eventAction value exists more than once within the events array."),
	}, v.Results())
	assert.Equal(t, []string{"stdRdapEventsValidation"}, v.LastRunGroups().Failed)
}

func TestValidate_NestedElementRuleSets(t *testing.T) {
	v, ok := validate(t, "events", `[
	  {"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
	  {"eventAction": "registration", "eventDate": "1996-08-14T04:00:00Z"}
	]`)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-10912, "#/1/eventAction:registration",
			"An eventAction value exists more than once within the events array."),
	}, v.Results())

	v, ok = validate(t, "links", `[{"href": "https://a.example", "href": "https://b.example"}]`)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-10624, "href:https://a.example", "The name in the name/value pair was found more than once."),
	}, v.Results())

	v, ok = validate(t, "links", `[{"href": "https://rdap.example.net/domain/example.com", "rel": "self"}]`)
	assert.True(t, ok, v.Results().Summary())
	assert.Equal(t, []string{"stdRdapLinksValidation"}, v.LastRunGroups().Evaluated)
}

func TestValidate_NoCascadeForAddressSemantics(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		ns := m["nameservers"].([]any)[0].(map[string]any)
		ns["ipAddresses"] = map[string]any{"v6": []any{"fc00::1"}}
	})
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-10201, "#/nameservers/0/ipAddresses/v6/0:fc00::1",
			"The IP address is not included in the allocated IPv6 address space."),
	}, v.Results())
	assert.Contains(t, v.LastRunGroups().Failed, "stdRdapIPv6AddressValidation")
}

func TestValidate_AddressSyntaxAndSpecial(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		ns := m["nameservers"].([]any)[0].(map[string]any)
		ns["ipAddresses"] = map[string]any{"v4": []any{"192.0.2.1", "300.1.1.1"}}
	})
	v, _ := validate(t, "domain", doc)
	assert.ElementsMatch(t, []int{-10102, -10100}, v.Results().Codes())
}

func TestValidate_UnknownKeysSorted(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		m["foo"] = 1
		m["bar"] = 2
		m["example_extension"] = "allowed"
	})
	v, _ := validate(t, "domain", doc)
	msg := "The name in the name/value pair is not one of: entities, events, handle, lang, ldhName, links, " +
		"nameservers, network, notices, objectClassName, port43, publicIds, rdapConformance, remarks, " +
		"secureDNS, status, unicodeName, variants."
	assert.Equal(t, findings.List{
		findings.New(-12203, "#/bar:2", msg),
		findings.New(-12203, "#/foo:1", msg),
	}, v.Results())
}

func TestValidate_Topmost(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		delete(m, "rdapConformance")
		ent := m["entities"].([]any)[0].(map[string]any)
		ent["notices"] = []any{map[string]any{"description": []any{"nested"}}}
	})
	v, ok := validate(t, "domain", doc)
	assert.False(t, ok)
	assert.Equal(t, findings.List{
		findings.New(-10703, "#",
			"The notices data structure appears below the topmost object and the topmost object does not contain rdapConformance."),
	}, v.Results())
	assert.Contains(t, v.LastRunGroups().Failed, "stdRdapNoticesRemarksValidation")
}

func TestValidate_Categories(t *testing.T) {
	doc := `{
	  "objectClassName": "entity",
	  "vcardArray": ["vcard", [
	    ["version", {}, "text", "4.0"],
	    ["adr", {}, "text", "123 Street, City"],
	    ["X-Bogus", {}, "text", "x"],
	    ["FN", {}, "text", "Joe"]
	  ]]
	}`
	v, ok := validate(t, "entity", doc)
	assert.False(t, ok)
	assert.Equal(t, []int{-12307, -12305}, v.Results().Codes())
	assert.Equal(t, `#/vcardArray/1/1:["adr",{},"text","123 Street, City"]`, v.Results()[0].Value)
	assert.Equal(t, "The x-bogus category is not a known category.", v.Results()[1].Message)
}

func TestValidate_CategoriesDoNotRepeatSchemaFindings(t *testing.T) {
	cases := map[string]struct {
		item  string
		code  int
		value string
	}{
		"parameters not an object": {`["fn", "oops", "text", "Joe"]`, -12308, "#/vcardArray/1/1/1:oops"},
		"too few members":          {`["fn", {}, "text"]`, -12310, `#/vcardArray/1/1:["fn",{},"text"]`},
		"type not a string":        {`["fn", {}, 7, "Joe"]`, -12309, "#/vcardArray/1/1/2:7"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			doc := `{"objectClassName": "entity", "vcardArray": ["vcard", [["version", {}, "text", "4.0"], ` + tc.item + `]]}`
			v, ok := validate(t, "entity", doc)
			assert.False(t, ok)
			require.Len(t, v.Results(), 1, "%v", v.Results())
			assert.Equal(t, tc.code, v.Results()[0].Code)
			assert.Equal(t, tc.value, v.Results()[0].Value)
		})
	}
}

func TestValidate_DelegatesToNamedSubSchema(t *testing.T) {
	doc := mutate(t, domainDoc, func(m map[string]any) {
		ent := m["entities"].([]any)[0].(map[string]any)
		ent["asEventActor"] = []any{map[string]any{
			"eventAction": "registration", "eventDate": "2000-01-01T00:00:00Z", "eventActor": "x",
		}}
	})
	v, _ := validate(t, "domain", doc)
	assert.Equal(t, findings.List{
		findings.New(-11300,
			`#/entities/0/asEventActor:[{"eventAction":"registration","eventActor":"x","eventDate":"2000-01-01T00:00:00Z"}]`,
			"The value for the JSON name value does not pass #/entities/0/asEventActor validation [stdRdapAsEventActorValidation]."),
	}, v.Results())
	assert.Contains(t, v.LastRunGroups().Failed, "stdRdapAsEventActorValidation")
}

func TestValidate_QueryMetadata(t *testing.T) {
	status := 200
	c := builtinCatalog(t)
	ok, list, err := c.Validate(context.Background(), "domain",
		mutate(t, domainDoc, func(m map[string]any) { m["lang"] = 7 }),
		rdapschema.WithQuery("https://rdap.example.net/domain/example.com", "GET", "application/rdap+json", &status))
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, -10400, list[0].Code)
	assert.Equal(t, "https://rdap.example.net/domain/example.com", list[0].QueriedURI)
	assert.Equal(t, "GET", list[0].HTTPMethod)
	require.NotNil(t, list[0].HTTPStatusCode)
	assert.Equal(t, 200, *list[0].HTTPStatusCode)
}

func TestValidate_ConcurrentSessionsAreIsolated(t *testing.T) {
	c := builtinCatalog(t)
	bad := mutate(t, domainDoc, func(m map[string]any) { delete(m, "ldhName") })

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.NewValidator("domain")
			if err != nil {
				errs <- err
				return
			}
			doc, want := domainDoc, 0
			if i%2 == 1 {
				doc, want = bad, 1
			}
			for n := 0; n < 3; n++ {
				if _, err := v.Validate(context.Background(), doc); err != nil {
					errs <- err
					return
				}
				if got := len(v.Results()); got != want {
					errs <- fmt.Errorf("session %d: %d findings, want %d", i, got, want)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestValidate_ResetAndCancel(t *testing.T) {
	v, ok := validate(t, "domain", `[]`)
	assert.False(t, ok)
	require.NotEmpty(t, v.Results())
	v.Reset()
	assert.Empty(t, v.Results())
	assert.Empty(t, v.LastRunGroups().Known)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Validate(ctx, domainDoc)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = v.ValidateReader(context.Background(), nil)
	assert.ErrorIs(t, err, rdapschema.ErrNoDocument)
	ok, err = v.ValidateReader(context.Background(), strings.NewReader(domainDoc))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidate_AnnotationMissingIsFatal(t *testing.T) {
	opts := rdapschema.DefaultOptions()
	opts.Sources = fstest.MapFS{
		"index.yaml": {Data: []byte("rulesets:\n  - name: bare\n    root: bare.json\n")},
		"bare.json": {Data: []byte(`{
		  "type": "object",
		  "properties": {"a": {"type": "string"}},
		  "x-rdap": {"rule": "bare", "codes": {"structure": -1, "duplicate": -2}}
		}`)},
	}
	c, err := rdapschema.NewCatalog(opts)
	require.NoError(t, err)
	v, err := c.NewValidator("bare")
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), `{"a": 1}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rdapschema.ErrAnnotationMissing))
	var ae *ruletree.AnnotationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "type", ae.Key)
	assert.True(t, rdapschema.IsConfigError(err))
}

func TestNewCatalog_DatasetMissing(t *testing.T) {
	b := dataset.Builtin()
	var keep []dataset.Dataset
	for _, n := range []string{
		dataset.IPv4AddressSpace, dataset.IPv6AddressSpace,
		dataset.SpecialIPv4Addresses, dataset.SpecialIPv6Addresses,
	} {
		d, ok := b.Dataset(n)
		require.True(t, ok)
		keep = append(keep, d)
	}
	opts := rdapschema.DefaultOptions()
	opts.Snapshot = dataset.NewSnapshot(keep...)
	opts.RuleSets = []string{"entity"}
	_, err := rdapschema.NewCatalog(opts)
	assert.True(t, errors.Is(err, rdapschema.ErrDatasetMissing), "%v", err)
}

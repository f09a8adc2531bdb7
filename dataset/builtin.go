package dataset

import (
	"fmt"
	"sync"
)

// Builtin returns a snapshot with compiled-in copies of the registries. It is
// good enough for tests and offline runs; production callers load a fresher
// bundle with LoadBundle and overlay it with (*Memory).With.
func Builtin() *Memory {
	builtinOnce.Do(func() { builtin = buildBuiltin() })
	return builtin
}

var (
	builtinOnce sync.Once
	builtin     *Memory
)

func buildBuiltin() *Memory {
	var v4 []string
	for i := 1; i <= 223; i++ {
		if i == 10 || i == 127 {
			continue
		}
		v4 = append(v4, fmt.Sprintf("%d.0.0.0/8", i))
	}
	return NewSnapshot(
		mustPrefixes(IPv4AddressSpace, "IPv4 address space", false, v4...),
		mustPrefixes(IPv6AddressSpace, "IPv6 address space", false, "2000::/3"),
		mustPrefixes(SpecialIPv4Addresses, "special IPv4 addresses", true,
			"0.0.0.0/8", "10.0.0.0/8", "100.64.0.0/10", "127.0.0.0/8",
			"169.254.0.0/16", "172.16.0.0/12", "192.0.0.0/24", "192.0.2.0/24",
			"192.88.99.0/24", "192.168.0.0/16", "198.18.0.0/15", "198.51.100.0/24",
			"203.0.113.0/24", "240.0.0.0/4", "255.255.255.255/32",
		),
		mustPrefixes(SpecialIPv6Addresses, "special IPv6 addresses", true,
			"::1/128", "::/128", "::ffff:0:0/96", "64:ff9b::/96", "100::/64",
			"2001::/23", "2001:db8::/32", "2002::/16", "fc00::/7", "fe80::/10",
		),
		NewSet(RDAPExtensions, "RDAP extensions", false,
			"rdap_level_0", "redacted", "cidr0", "arin_originas0", "paging",
			"sorting", "subsetting", "reverse_search", "fred", "nro_rdap_profile_0",
			"rdap_objectTag_level_0", "jscard", "jscard_level_0",
			"icann_rdap_response_profile_0", "icann_rdap_response_profile_1",
			"icann_rdap_technical_implementation_guide_0",
			"icann_rdap_technical_implementation_guide_1",
		),
		NewSet(LinkRelations, "link relations", true,
			"about", "alternate", "author", "canonical", "collection", "copyright",
			"describedby", "edit", "enclosure", "first", "help", "icon", "item",
			"last", "license", "next", "prev", "privacy-policy", "related",
			"replies", "search", "self", "service", "terms-of-service", "up", "via",
			"rdap-up", "rdap-down", "rdap-top", "rdap-bottom", "rdap-active",
		),
		NewSet(MediaTypes, "media types", true,
			"application/rdap+json", "application/json", "application/pdf",
			"application/xml", "text/html", "text/plain", "text/xml",
			"image/png", "image/jpeg", "image/svg+xml",
		),
		NewSet(EventActions, "event actions", false,
			"registration", "reregistration", "last changed", "expiration",
			"deletion", "reinstantiation", "transfer", "locked", "unlocked",
			"last update of RDAP database", "registrar expiration",
			"enum validation expiration",
		),
		NewSet(Statuses, "statuses", false,
			"validated", "renew prohibited", "update prohibited",
			"transfer prohibited", "delete prohibited", "proxy", "private",
			"removed", "obscured", "associated", "active", "inactive", "locked",
			"pending create", "pending renew", "pending transfer",
			"pending update", "pending delete", "add period", "auto renew period",
			"client delete prohibited", "client hold", "client renew prohibited",
			"client transfer prohibited", "client update prohibited",
			"pending restore", "redemption period", "renew period",
			"server delete prohibited", "server renew prohibited",
			"server transfer prohibited", "server update prohibited",
			"server hold", "transfer period", "administrative", "reserved",
		),
		NewSet(Roles, "roles", false,
			"registrant", "technical", "administrative", "abuse", "billing",
			"registrar", "reseller", "sponsor", "proxy", "notifications", "noc",
		),
		NewSet(VariantRelations, "variant relations", false,
			"registered", "unregistered", "registration restricted",
			"open registration", "conjoined",
		),
		NewSet(NoticeAndRemarkTypes, "notice and remark types", false,
			"result set truncated due to authorization",
			"result set truncated due to excessive load",
			"result set truncated due to unexplainable reasons",
			"object truncated due to authorization",
			"object truncated due to excessive load",
			"object truncated due to unexplainable reasons",
			"object redacted due to authorization",
		),
		NewSet(DNSSECAlgorithmNumbers, "DNSSEC algorithm numbers", false,
			"1", "3", "5", "6", "7", "8", "10", "12", "13", "14", "15", "16",
		),
	)
}

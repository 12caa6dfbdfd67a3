// Package detect implements the PII/NPI classifier run over every parsed
// cell: a closed set of independent rules, each of which may tag a value
// with zero or more PiiType values, plus the paired canonical-hash functions
// used to fingerprint a classified value without retaining its plaintext.
//
// Grounded on the original implementation's detection rules
// (src/npi_detection.rs), adjusted for the more conservative private-IP
// exclusion and network-IIN-gated credit-card rule this module follows.
package detect

import (
	"net"
	"regexp"
	"strings"
	"unicode"

	"github.com/jeleniel/breachcorpus/pkg/hashutil"
)

// PiiType tags a detected category of personal or non-public information.
type PiiType string

const (
	Email               PiiType = "email"
	IPv4Address         PiiType = "ipv4_address"
	IPv6Address         PiiType = "ipv6_address"
	PhoneNumber         PiiType = "phone_number"
	SocialSecurityNum   PiiType = "ssn"
	CreditCardNumber    PiiType = "credit_card"
	NationalID          PiiType = "national_id"
	IBAN                PiiType = "iban"
	SWIFTCode           PiiType = "swift_code"
	RoutingNumber       PiiType = "routing_number"
	BankAccount         PiiType = "bank_account"
	CryptoAddress       PiiType = "crypto_address"
	DigitalWalletToken  PiiType = "digital_wallet"
	Name                PiiType = "name"
	MailingAddress      PiiType = "mailing_address"
)

var privateIPv4Nets = mustCIDRs(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
)

var privateIPv6Nets = mustCIDRs(
	"fe80::/10",
	"fc00::/7",
)

func mustCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// DetectPII runs every rule against value and returns every matching tag.
// columnName, if non-empty, is consulted for header-assisted heuristics but
// currently only participates via the caller's own column-classification
// logic (see pkg/ingest); detection itself is value-driven.
func DetectPII(value string, columnName string) []PiiType {
	trimmed := strings.TrimSpace(value)
	_ = columnName

	var tags []PiiType
	add := func(ok bool, t PiiType) {
		if ok {
			tags = append(tags, t)
		}
	}

	add(isEmail(trimmed), Email)
	add(isPublicIPv4(trimmed), IPv4Address)
	add(isPublicIPv6(trimmed), IPv6Address)
	add(isPhoneNumber(trimmed), PhoneNumber)
	add(isSSN(trimmed), SocialSecurityNum)
	add(isCreditCard(trimmed), CreditCardNumber)
	add(isNationalID(trimmed), NationalID)
	add(isIBAN(trimmed), IBAN)
	add(isSWIFTCode(trimmed), SWIFTCode)
	add(isRoutingNumber(trimmed), RoutingNumber)
	add(isBankAccount(trimmed), BankAccount)
	add(isCryptoAddress(trimmed), CryptoAddress)
	add(isDigitalWalletToken(trimmed), DigitalWalletToken)
	add(isName(trimmed), Name)
	add(isMailingAddress(trimmed), MailingAddress)

	return tags
}

func isEmail(v string) bool {
	return strings.Contains(v, "@") && len(v) > 5
}

func isPublicIPv4(v string) bool {
	ip := net.ParseIP(v)
	if ip == nil || ip.To4() == nil {
		return false
	}
	if v == "255.255.255.255" {
		return false
	}
	for _, n := range privateIPv4Nets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}

func isPublicIPv6(v string) bool {
	ip := net.ParseIP(v)
	if ip == nil || ip.To4() != nil || !strings.Contains(v, ":") {
		return false
	}
	if ip.IsLoopback() {
		return false
	}
	for _, n := range privateIPv6Nets {
		if n.Contains(ip) {
			return false
		}
	}
	return true
}

func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isPhoneNumber(v string) bool {
	digits := digitsOnly(v)
	n := len(digits)
	if n < 10 || n > 15 {
		return false
	}
	hasCountryCode := strings.HasPrefix(v, "+")
	return hasCountryCode || strings.Contains(v, "-") || strings.Contains(v, " ") ||
		strings.Contains(v, "(") || n == 10
}

func isSSN(v string) bool {
	digits := digitsOnly(v)
	if len(digits) != 9 {
		return false
	}
	first3 := digits[:3]
	if first3 == "000" || first3 == "666" {
		return false
	}
	if allSameDigit(first3) && first3[0] == '9' {
		return false
	}
	return true
}

func allSameDigit(s string) bool {
	if s == "" {
		return true
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func luhnValid(digits string) bool {
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

var iinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^4\d*$`),                   // Visa
	regexp.MustCompile(`^(5[1-5]|222[1-9]|22[3-9]\d|2[3-6]\d{2}|27[01]\d|2720)`), // Mastercard
	regexp.MustCompile(`^3[47]`),                   // Amex
	regexp.MustCompile(`^(6011|65|64[4-9])`),       // Discover
	regexp.MustCompile(`^35(2[89]|[3-8]\d)`),       // JCB
	regexp.MustCompile(`^(30[0-5]|36|38)`),         // Diners
}

func isCreditCard(v string) bool {
	digits := digitsOnly(v)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	if !luhnValid(digits) {
		return false
	}
	for _, re := range iinPatterns {
		if re.MatchString(digits) {
			return true
		}
	}
	return false
}

var (
	ukNIRe = regexp.MustCompile(`^[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]$`)
	esDNIRe = regexp.MustCompile(`^\d{8}[A-Z]$`)
	itCFRe  = regexp.MustCompile(`^[A-Z]{6}\d{2}[A-Z]\d{2}[A-Z]\d{3}[A-Z]$`)
)

// isNationalID rejects SSNs, then accepts a UK NI, ES DNI or IT CF pattern
// outright. Otherwise it applies the conservative fallback: 6-18 digits
// after stripping non-digits, with either formatting characters
// (hyphen/space/letter) or at least 10 digits. No other country has its
// own validator, and no confidence value is computed.
func isNationalID(v string) bool {
	if isSSN(v) {
		return false
	}

	stripped := strings.NewReplacer("-", "", " ", "").Replace(v)

	if ukNIRe.MatchString(strings.ToUpper(stripped)) {
		return true
	}
	if esDNIRe.MatchString(strings.ToUpper(stripped)) {
		return true
	}
	if itCFRe.MatchString(strings.ToUpper(stripped)) {
		return true
	}

	digits := digitsOnly(v)
	n := len(digits)
	if n < 6 || n > 18 {
		return false
	}

	hasFormatting := strings.Contains(v, "-") || strings.Contains(v, " ")
	for _, r := range v {
		if unicode.IsLetter(r) {
			hasFormatting = true
			break
		}
	}

	return hasFormatting || n >= 10
}

func isIBAN(v string) bool {
	normalized := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(v))
	if len(normalized) < 15 || len(normalized) > 34 {
		return false
	}
	for _, r := range normalized[:2] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	for _, r := range normalized[2:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSWIFTCode(v string) bool {
	normalized := strings.ToUpper(strings.ReplaceAll(v, "-", ""))
	if len(normalized) != 8 && len(normalized) != 11 {
		return false
	}
	for _, r := range normalized[:4] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	for _, r := range normalized[4:6] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isRoutingNumber(v string) bool {
	digits := digitsOnly(v)
	if len(digits) != 9 {
		return false
	}
	return digits != "000000000"
}

func isBankAccount(v string) bool {
	digits := digitsOnly(v)
	n := len(digits)
	if n < 8 || n > 17 {
		return false
	}
	return !allSameDigit(digits)
}

func isCryptoAddress(v string) bool {
	trimmed := strings.TrimSpace(v)

	if n := len(trimmed); n >= 26 && n <= 62 {
		if strings.HasPrefix(trimmed, "bc1") {
			return allMatch(trimmed[3:], func(r rune) bool {
				return unicode.IsDigit(r) || (r >= 'a' && r <= 'z' && r != 'b' && r != 'i' && r != 'o')
			})
		}
		if strings.HasPrefix(trimmed, "1") || strings.HasPrefix(trimmed, "3") {
			return allMatch(trimmed, isBase58)
		}
	}

	if len(trimmed) == 42 && strings.HasPrefix(trimmed, "0x") {
		return allMatch(trimmed[2:], isHexDigit)
	}

	if strings.HasPrefix(trimmed, "r") && len(trimmed) >= 25 && len(trimmed) <= 34 {
		return allMatch(trimmed, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	}

	return false
}

func isBase58(r rune) bool {
	return (unicode.IsDigit(r) || unicode.IsLetter(r)) && r != '0' && r != 'O' && r != 'I' && r != 'l'
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func allMatch(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isDigitalWalletToken(v string) bool {
	trimmed := strings.TrimSpace(v)

	if strings.HasPrefix(trimmed, "acct_") && len(trimmed) > 10 {
		return allMatch(trimmed[5:], func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
		})
	}

	if strings.HasPrefix(trimmed, "sq0asa-") && len(trimmed) > 15 {
		return allMatch(trimmed[7:], func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) })
	}

	if n := len(trimmed); n >= 12 && n <= 16 {
		if allMatch(trimmed, func(r rune) bool { return unicode.IsUpper(r) || unicode.IsDigit(r) }) {
			return true
		}
	}

	if n := len(trimmed); n >= 16 && n <= 64 {
		if allMatch(trimmed, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }) {
			return true
		}
	}

	return false
}

func isName(v string) bool {
	trimmed := strings.TrimSpace(v)
	if len(trimmed) < 3 || len(trimmed) > 50 {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			return false
		}
	}
	if !strings.Contains(trimmed, " ") {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) < 2 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			capitalized++
		}
	}
	return capitalized >= len(words)/2
}

var addressKeywords = []string{
	"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd",
	"lane", "ln", "drive", "dr", "court", "ct", "apartment", "apt",
	"suite", "ste", "zip", "postal", "city", "county", "circle", "way",
	"trail", "parkway", "floor",
}

func isMailingAddress(v string) bool {
	trimmed := strings.TrimSpace(v)
	if len(trimmed) < 10 || len(trimmed) > 200 {
		return false
	}
	hasDigit := false
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range addressKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// --- canonical-form hashing ---

// HashPhone hashes the digits-only form of a phone number.
func HashPhone(v string) string { return hashutil.SHA256Hex([]byte(digitsOnly(v))) }

// HashCreditCard hashes the last four digits plus length, never the full PAN.
func HashCreditCard(v string) string {
	digits := digitsOnly(v)
	if len(digits) < 4 {
		return hashutil.SHA256Hex([]byte(digits))
	}
	last4 := digits[len(digits)-4:]
	masked := last4 + "_" + itoa(len(digits))
	return hashutil.SHA256Hex([]byte(masked))
}

// HashNationalID hashes the formatting-stripped, uppercased form.
func HashNationalID(v string) string {
	var b strings.Builder
	for _, r := range v {
		if unicode.IsSpace(r) || r == '-' || r == '/' {
			continue
		}
		b.WriteRune(r)
	}
	return hashutil.SHA256Hex([]byte(strings.ToUpper(b.String())))
}

// HashSSN hashes the digits-only form.
func HashSSN(v string) string { return hashutil.SHA256Hex([]byte(digitsOnly(v))) }

// HashIBAN hashes the space/hyphen-stripped, uppercased form.
func HashIBAN(v string) string {
	normalized := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(v))
	return hashutil.SHA256Hex([]byte(normalized))
}

// HashSWIFT hashes the hyphen-stripped, uppercased form.
func HashSWIFT(v string) string {
	normalized := strings.ToUpper(strings.ReplaceAll(v, "-", ""))
	return hashutil.SHA256Hex([]byte(normalized))
}

// HashRoutingNumber hashes the digits-only form.
func HashRoutingNumber(v string) string { return hashutil.SHA256Hex([]byte(digitsOnly(v))) }

// HashBankAccount hashes the digits-only form.
func HashBankAccount(v string) string { return hashutil.SHA256Hex([]byte(digitsOnly(v))) }

// HashCryptoAddress hashes the trimmed, lowercased form.
func HashCryptoAddress(v string) string {
	return hashutil.SHA256Hex([]byte(strings.ToLower(strings.TrimSpace(v))))
}

// HashDigitalWalletToken hashes the trimmed, lowercased form.
func HashDigitalWalletToken(v string) string {
	return hashutil.SHA256Hex([]byte(strings.ToLower(strings.TrimSpace(v))))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

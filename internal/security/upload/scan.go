package upload

import "regexp"

var maliciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)<\?php`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)base64_decode\s*\(`),
	regexp.MustCompile(`(?i)document\.cookie`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
}

// ScanMalicious looks for script or markup payloads hidden in file bytes and
// returns the first matching pattern.
func ScanMalicious(data []byte) (string, bool) {
	for _, re := range maliciousPatterns {
		if re.Match(data) {
			return re.String(), true
		}
	}
	return "", false
}

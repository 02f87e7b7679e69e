package repair

import "github.com/onsi/ginkgo/v2"

// RepairDescribe annotates the test with the label.
func RepairDescribe(text string, body func()) bool {
	return ginkgo.Describe("[repair] "+text, body)
}

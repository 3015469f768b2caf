package answer

import "hash/fnv"

// Canned responses for questions the document does not answer. The pick is
// a stable hash of the question so repeated asks get the same wording.
var notFoundResponses = []string{
	"The document does not appear to address this question. You may want to check related sections or consult the full text directly.",
	"I could not find a relevant provision for this question in the document.",
	"This topic does not seem to be covered by the document. Consider rephrasing the question or verifying that the right document is loaded.",
	"No section of the document matches this question closely enough to give a grounded answer.",
}

func notFoundText(question string) string {
	h := fnv.New32a()
	h.Write([]byte(question))
	return notFoundResponses[int(h.Sum32())%len(notFoundResponses)]
}

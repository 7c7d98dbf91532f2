package email

const (
	subjectQuoteFmt          = "Your Quotation %s from Breed Industries"
	subjectContactAck        = "We received your enquiry"
	subjectContactMessageFmt = "New website enquiry from %s"
)

// QuoteAttachmentName returns the file name used for the PDF attached to a
// quote email.
func QuoteAttachmentName(quoteNumber string) string {
	return "Breed_Industries_Quote_" + quoteNumber + ".pdf"
}

package forms

var definitions = []Definition{
	{
		Kind:  KindVolunteer,
		Title: "Volunteer With Us",
		Table: "volunteers",
		Fields: []Field{
			{Key: "name", Column: "full_name", Label: "Full Name", Input: InputText, Required: true},
			{Key: "email", Column: "email", Label: "Email", Input: InputEmail, Required: true},
			{Key: "phone", Column: "phone", Label: "Phone Number", Input: InputPhone, Required: true},
			{Key: "area", Column: "area", Label: "Area of Interest", Input: InputSelect, Options: []Option{
				{Value: "workshops", Label: "Educational Workshops"},
				{Value: "counseling", Label: "Peer Counseling"},
				{Value: "outreach", Label: "Community Outreach"},
				{Value: "events", Label: "Event Support"},
				{Value: "admin", Label: "Administrative Support"},
			}},
			{Key: "experience", Column: "experience", Label: "Relevant Experience", Input: InputTextarea},
			{Key: "availability", Column: "availability", Label: "Availability", Input: InputSelect, Options: []Option{
				{Value: "weekdays", Label: "Weekdays"},
				{Value: "weekends", Label: "Weekends"},
				{Value: "flexible", Label: "Flexible"},
				{Value: "events-only", Label: "Events Only"},
			}},
			{Key: "backgroundCheck", Column: "background_check", Label: "I agree to undergo a background check if required", Input: InputCheckbox},
		},
		Success: Notification{
			Title:   "Application Submitted!",
			Message: "Thank you for your interest in volunteering. We'll contact you soon.",
		},
	},
	{
		Kind:  KindPartner,
		Title: "Partner With Us",
		Table: "partners",
		Fields: []Field{
			{Key: "name", Column: "contact_person", Label: "Contact Person", Input: InputText, Required: true},
			{Key: "organization", Column: "organization_name", Label: "Organization Name", Input: InputText, Required: true},
			{Key: "email", Column: "email", Label: "Email", Input: InputEmail, Required: true},
			{Key: "phone", Column: "phone", Label: "Phone Number", Input: InputPhone},
			{Key: "partnershipType", Column: "partnership_type", Label: "Partnership Type", Input: InputSelect, Options: []Option{
				{Value: "healthcare", Label: "Healthcare Provider"},
				{Value: "education", Label: "Educational Institution"},
				{Value: "community", Label: "Community Organization"},
				{Value: "corporate", Label: "Corporate Sponsor"},
				{Value: "government", Label: "Government Agency"},
				{Value: "other", Label: "Other"},
			}},
			{Key: "details", Column: "partnership_details", Label: "Partnership Details", Input: InputTextarea},
		},
		Success: Notification{
			Title:   "Partnership Inquiry Sent!",
			Message: "We appreciate your interest. Our team will review your proposal and get back to you.",
		},
	},
	{
		Kind:  KindFundraising,
		Title: "Become a Fundraising Ambassador",
		Table: "fundraising_ambassadors",
		Fields: []Field{
			{Key: "name", Column: "full_name", Label: "Full Name", Input: InputText, Required: true},
			{Key: "email", Column: "email", Label: "Email", Input: InputEmail, Required: true},
			{Key: "phone", Column: "phone", Label: "Phone Number", Input: InputPhone},
			{Key: "campaignType", Column: "campaign_type", Label: "Preferred Campaign Type", Input: InputSelect, Options: []Option{
				{Value: "events", Label: "Fundraising Events"},
				{Value: "online", Label: "Online Campaigns"},
				{Value: "corporate", Label: "Corporate Partnerships"},
				{Value: "grants", Label: "Grant Writing"},
				{Value: "community", Label: "Community Drives"},
				{Value: "all", Label: "All Types"},
			}},
			{Key: "experience", Column: "experience", Label: "Fundraising Experience", Input: InputTextarea},
			{Key: "ideas", Column: "ideas", Label: "Fundraising Ideas", Input: InputTextarea},
		},
		Success: Notification{
			Title:   "Fundraising Application Received!",
			Message: "Thank you for wanting to help us raise funds. We'll be in touch soon!",
		},
	},
	{
		Kind:  KindEventOrganizer,
		Title: "Organize an Event",
		Table: "event_organizers",
		Fields: []Field{
			{Key: "name", Column: "full_name", Label: "Full Name", Input: InputText, Required: true},
			{Key: "email", Column: "email", Label: "Email", Input: InputEmail, Required: true},
			{Key: "phone", Column: "phone", Label: "Phone Number", Input: InputPhone},
			{Key: "eventType", Column: "event_type", Label: "Event Type Interest", Input: InputSelect, Options: []Option{
				{Value: "workshops", Label: "Educational Workshops"},
				{Value: "awareness", Label: "Awareness Campaigns"},
				{Value: "fundraising", Label: "Fundraising Events"},
				{Value: "community", Label: "Community Outreach"},
				{Value: "training", Label: "Training Sessions"},
				{Value: "all", Label: "All Types"},
			}},
			{Key: "experience", Column: "experience", Label: "Event Planning Experience", Input: InputTextarea},
			{Key: "availability", Column: "availability", Label: "Time Availability", Input: InputSelect, Options: []Option{
				{Value: "5-10", Label: "5-10 hours/month"},
				{Value: "10-20", Label: "10-20 hours/month"},
				{Value: "20+", Label: "20+ hours/month"},
				{Value: "flexible", Label: "Flexible"},
			}},
			{Key: "leadership", Column: "leadership", Label: "Leadership Experience", Input: InputTextarea},
		},
		Success: Notification{
			Title:   "Event Organizer Application Sent!",
			Message: "We're excited about your interest in organizing events. We'll contact you soon!",
		},
	},
}

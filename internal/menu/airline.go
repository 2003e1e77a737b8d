package menu

func collect(k CollectKind) *CollectKind { return &k }

// Airline builds the full menu tree for the airline IVR. Prompts mention
// both the speech and keypad paths because every turn may arrive on either
// channel.
func Airline() *Graph {
	return &Graph{menus: map[ID]*Menu{
		Main: {
			Prompt: "Welcome to Air India. You can say your option. " +
				"Press 1 for Flight Status. " +
				"Press 2 to Manage an Existing Booking. " +
				"Press 3 for Baggage Services. " +
				"Press 4 for Check-in and Boarding Pass. " +
				"Press 5 to Book a New Flight. " +
				"Press 6 for Frequent Flyer Program. " +
				"Press 7 for Special Assistance. " +
				"Press 8 for Refunds and Receipts. " +
				"Press 9 for All Other Inquiries. " +
				"Press 0 to speak with an agent.",
			Options: map[string]Edge{
				"1": {Action: ActionGotoMenu, Target: FlightStatusPNR, Message: "You selected Flight Status."},
				"2": {Action: ActionGotoMenu, Target: ManageBookingPNR, Message: "You selected Manage Booking."},
				"3": {Action: ActionGotoMenu, Target: Baggage, Message: "You selected Baggage Services."},
				"4": {Action: ActionGotoMenu, Target: CheckInOptions, Message: "You selected Check-in and Boarding Pass."},
				"5": {Action: ActionGotoMenu, Target: BookFlight, Message: "You selected Book New Flight."},
				"6": {Action: ActionGotoMenu, Target: FrequentFlyerNumber, Message: "You selected Frequent Flyer Program."},
				"7": {Action: ActionGotoMenu, Target: SpecialAssistance, Message: "You selected Special Assistance."},
				"8": {Action: ActionGotoMenu, Target: Refunds, Message: "You selected Refunds and Receipts."},
				"9": {Action: ActionGotoMenu, Target: OtherInquiries, Message: "You selected Other Inquiries."},
				"0": {Action: ActionTransferAgent, Message: "You will be directed to our airline agent, please wait."},
			},
		},
		FlightStatusPNR: {
			Prompt:  "Please say your 6-character PNR, or enter it on the keypad followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupStatus, Message: "Looking up your PNR..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		ManageBookingPNR: {
			Prompt:  "To manage your booking, please say your 6-character PNR, or enter it on the keypad followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupManage, Message: "Finding your booking..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		ManageBookingOptions: {
			Prompt: "PNR found. Say 'Change Flight' or 'Cancel Flight'. Or, Press 1 to Change your flight. Press 2 to Cancel your flight. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionEndCall, Message: "To change your flight, a link has been sent via SMS. This call will now end."},
				"2":         {Action: ActionCancelFlight, Message: "Attempting to cancel your flight..."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		Baggage: {
			Prompt: "For Baggage Services: Say 'Lost Baggage' or 'Baggage Allowance'. Or, Press 1 for Lost or Delayed Baggage. Press 2 for Baggage Allowance. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionTransferAgent, Message: "Transferring to a baggage specialist."},
				"2":         {Action: ActionEndCall, Message: "For domestic flights, your cabin allowance is 7kg and check-in allowance is 15kg. For international, check-in is 25kg. This call will now end."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		CheckInOptions: {
			Prompt: "For Check-in: Say 'Check in' or 'Get Boarding Pass'. Or, Press 1 to check in for your flight. Press 2 to get your boarding pass. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionGotoMenu, Target: CheckInPNRForCheckin, Message: "Okay, let's check you in."},
				"2":         {Action: ActionGotoMenu, Target: CheckInPNRForBoarding, Message: "Okay, let's get your boarding pass."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		CheckInPNRForCheckin: {
			Prompt:  "To check in, please say your 6-character PNR, or enter it followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupCheckin, Message: "Finding your booking for check-in..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: CheckInOptions, Message: "Going back."},
			},
		},
		CheckInPNRForBoarding: {
			Prompt:  "To get your boarding pass, please say your 6-character PNR, or enter it followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupBoarding, Message: "Finding your booking for boarding pass..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: CheckInOptions, Message: "Going back."},
			},
		},
		BookFlight: {
			Prompt:  "To book a new flight, please say the flight number, for example A I 1 0 1, or enter it on the keypad followed by hash. Press star to go back.",
			Collect: collect(CollectFlightCode),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupFlight, Message: "Checking that flight..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		BookName: {
			Prompt:  "Flight found. Please say the passenger's full name.",
			Collect: collect(CollectName),
			Options: map[string]Edge{
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		BookAge: {
			Prompt:  "Thank you. Please say the passenger's age, or enter it on the keypad followed by hash.",
			Collect: collect(CollectAge),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionSetAge, Message: "Noting the age..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		BookGender: {
			Prompt: "Please select the passenger's gender. Press 1 for Male. Press 2 for Female. Press 3 for Other. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionSetGender, Gender: "Male", Message: "Gender noted."},
				"2":         {Action: ActionSetGender, Gender: "Female", Message: "Gender noted."},
				"3":         {Action: ActionSetGender, Gender: "Other", Message: "Gender noted."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		BookConfirm: {
			Prompt: "Press 1 or say 'confirm' to confirm this booking. Press 2 to cancel and return to the main menu.",
			Options: map[string]Edge{
				"1":         {Action: ActionConfirmBooking, Message: "Confirming your booking..."},
				"2":         {Action: ActionGotoMenu, Target: Main, Message: "Booking cancelled. Going back to main menu."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Booking cancelled. Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Booking cancelled. Going back to main menu."},
			},
		},
		FrequentFlyerNumber: {
			Prompt:  "Please say or enter your 9-digit Flying Returns number followed by hash. Press star to go back.",
			Collect: collect(CollectFFNumber),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupFFNumber, Message: "Looking up your account..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		FrequentFlyerPIN: {
			Prompt:  "For security, please say or enter your 4-digit PIN followed by hash. Press star to go back.",
			Collect: collect(CollectPIN),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionVerifyFFPIN, Message: "Verifying your PIN..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		FrequentFlyerOptions: {
			Prompt: "Account verified. Say 'Check Points' or 'Redeem Points'. Or, Press 1 to check your points balance. Press 2 to redeem points. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionCheckFFPoints, Message: "Checking your points balance..."},
				"2":         {Action: ActionEndCall, Message: "To redeem points for flights or upgrades, please log in to your account on our website. This call will now end."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		SpecialAssistance: {
			Prompt: "For Special Assistance: Say 'Wheelchair' or 'Other Needs'. Or, Press 1 for Wheelchair Assistance. Press 2 for other needs. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionTransferAgent, Message: "Transferring to our special assistance team for wheelchair booking."},
				"2":         {Action: ActionTransferAgent, Message: "Transferring to our special assistance team."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		Refunds: {
			Prompt: "For Refunds and Receipts: Say 'Refund Status' or 'Get Receipt'. Or, Press 1 for Refund Status. Press 2 to get a copy of your receipt. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionGotoMenu, Target: RefundStatusPNR, Message: "Okay, let's check your refund status."},
				"2":         {Action: ActionGotoMenu, Target: ReceiptPNR, Message: "Okay, let's get your receipt."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
		RefundStatusPNR: {
			Prompt:  "To check your refund status, please say your 6-character PNR, or enter it followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupRefund, Message: "Checking your refund..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Refunds, Message: "Going back."},
			},
		},
		ReceiptPNR: {
			Prompt:  "To receive a copy of your receipt, please say your 6-character PNR, or enter it followed by hash. Press star to go back.",
			Collect: collect(CollectPNR),
			Options: map[string]Edge{
				TriggerSubmit: {Action: ActionLookupReceipt, Message: "Finding your receipt..."},
				TriggerBack:   {Action: ActionGotoMenu, Target: Refunds, Message: "Going back."},
			},
		},
		OtherInquiries: {
			Prompt: "For Other Inquiries: Say 'Pet Policy' or 'Group Booking'. Or, Press 1 for Pet Travel Policy. Press 2 for Group Bookings. Press 0 to go back.",
			Options: map[string]Edge{
				"1":         {Action: ActionEndCall, Message: "For Pet Travel, small pets in carriers are allowed in the cabin for a fee. Please see our website for size restrictions. This call will now end."},
				"2":         {Action: ActionTransferAgent, Message: "For group bookings of 9 or more, transferring to a specialist."},
				"0":         {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
				TriggerBack: {Action: ActionGotoMenu, Target: Main, Message: "Going back to main menu."},
			},
		},
	}}
}

package directory

import "context"

// SeedReservations returns the demo booking set. Keys are the keypad
// encodings of the display PNRs.
func SeedReservations() []Reservation {
	return []Reservation{
		{Key: "241234", DisplayPNR: "AI1234", Flight: "AI101", Status: StatusConfirmed, Route: "Mumbai to Delhi", Time: "Today 6:00 PM", SeatsAvailable: 30, PassengerName: "R. Kumar", PassengerAge: 45, PassengerGender: "Male"},
		{Key: "855678", DisplayPNR: "UK5678", Flight: "UK822", Status: StatusDelayed, Route: "Chennai to Bangalore", Time: "Today 4:30 PM (New 5:15 PM)", SeatsAvailable: 5, PassengerName: "S. Priya", PassengerAge: 28, PassengerGender: "Female"},
		{Key: "749876", DisplayPNR: "SG9876", Flight: "SG445", Status: StatusCancelled, Route: "Delhi to Goa", Time: "Tomorrow 9:00 AM", SeatsAvailable: 0, PassengerName: "A. Gupta", PassengerAge: 33, PassengerGender: "Male"},
		{Key: "631111", DisplayPNR: "6E1111", Flight: "6E204", Status: StatusConfirmed, Route: "Kolkata to Hyderabad", Time: "Today 7:20 PM", SeatsAvailable: 50, PassengerName: "M. Banerjee", PassengerAge: 52, PassengerGender: "Female"},
		{Key: "222222", DisplayPNR: "BA2222", Flight: "BA142", Status: StatusConfirmed, Route: "London to Mumbai", Time: "Tomorrow 11:00 AM", SeatsAvailable: 12, PassengerName: "John Smith", PassengerAge: 41, PassengerGender: "Male"},
		{Key: "353333", DisplayPNR: "EK3333", Flight: "EK501", Status: StatusBoarding, Route: "Dubai to Chennai", Time: "Today 4:30 PM", SeatsAvailable: 0, PassengerName: "F. Al-Jaber", PassengerAge: 29, PassengerGender: "Female"},
		{Key: "734444", DisplayPNR: "QF4444", Flight: "QF068", Status: StatusOnTime, Route: "Singapore to Sydney", Time: "Today 8:00 PM", SeatsAvailable: 45, PassengerName: "L. Chen", PassengerAge: 60, PassengerGender: "Male"},
	}
}

// SeedLoyaltyAccounts returns the demo Flying Returns accounts.
func SeedLoyaltyAccounts() []LoyaltyAccount {
	return []LoyaltyAccount{
		{Number: "111222333", PIN: "1234", Points: 12500, Name: "Saranya"},
		{Number: "987654321", PIN: "1995", Points: 55000, Name: "Kumar"},
		{Number: "555666777", PIN: "0000", Points: 800, Name: "Priya"},
	}
}

// EnsureSeed populates d with the demo data when its tables are empty.
// Re-running against a seeded directory is a no-op.
func EnsureSeed(ctx context.Context, d Directory) error {
	n, err := d.ReservationCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		for _, r := range SeedReservations() {
			if err := d.InsertReservation(ctx, &r); err != nil {
				return err
			}
		}
	}
	n, err = d.LoyaltyAccountCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		for _, a := range SeedLoyaltyAccounts() {
			if err := d.UpsertLoyaltyAccount(ctx, &a); err != nil {
				return err
			}
		}
	}
	return nil
}

/*
Package vehicle sends commands and queries to a vehicle enrolled in a Blue Link account.

A Vehicle is normally obtained from [account.Account.GetVehicle]. On creation it loads the
enrollment feature list and the owner's vehicle records in the background; wait for it before
issuing gated commands:

	car, err := acct.GetVehicle(ctx, vin, pin)
	if err != nil {
		return err
	}
	if err := car.Wait(ctx); err != nil {
		return err
	}
	result, err := car.Lock(ctx)

Every operation returns a *protocol.Result holding the vendor status code, error message, and
operation payload. A nil error does not mean the vehicle carried out the command; check
result.Failed().
*/
package vehicle

/*
Package proxy implements a REST API for sending commands to Blue Link vehicles.

Commands are POSTed to /api/1/vehicles/<vin>/command/<command> with optional JSON parameters:

	door_lock, door_unlock, flash_lights, honk_horn (alias panic), remote_stop
	remote_start   {"air_control": true, "duration": 10, "temperature": 70, "defrost": false,
	                "heating": false, "driver_seat_heat": "2"}
	send_poi       {"address": "...", "place_id": "...", "lat": 0.0, "long": 0.0}

Queries are sent as GET /api/1/vehicles/<vin>/data/<query>:

	status (?refresh=true), health, account_info, owner_info, features, service_info,
	pin_status, subscriptions, messages, usage (?from=YYYY-MM-DD&to=YYYY-MM-DD)

Successful replies wrap the vendor result in {"response": {...}}; a vendor failure status is still
a 200 response whose result carries "status": "E:Failure". Errors raised before the vendor replies
use HTTP status codes: 400 for bad parameters, 404 for VINs the account does not own, 422 for
features or generations the vehicle lacks, 423 when the PIN is locked, and 502 or 504 when the
vendor cannot be reached.

Request counts are exported in Prometheus format from /metrics.
*/
package proxy

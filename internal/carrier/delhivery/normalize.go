package delhivery

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/storefront/logistics/internal/core/domain"
)

// Every function in this file is a pure mapping from a decoded carrier reply
// (the result of decodeBody, or a literal in tests) to a canonical type.

// normalizeWaybills flattens the known waybill reply shapes:
//
//	["1","2"]              bare array (strings or numbers)
//	"1,2"                  JSON string, comma separated
//	{"waybills":[...]}     wrapped array
//	{"waybills":"1,2"}     wrapped string
//	{"data":[...]}         wrapped array
//	{"data":"1,2"}         wrapped string
//	{"waybill":"1"}        single object
//	1,2                    plain text body
func normalizeWaybills(body []byte) []string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return splitWaybills(string(trimmed))
	}
	return waybillsFromValue(v)
}

func waybillsFromValue(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, waybillsFromValue(item)...)
		}
		return out
	case string:
		return splitWaybills(t)
	case json.Number, float64, int, int64:
		if s := str(t); s != "" {
			return []string{s}
		}
	case map[string]any:
		for _, key := range []string{"waybills", "data", "waybill", "wbns"} {
			if inner, ok := t[key]; ok {
				return waybillsFromValue(inner)
			}
		}
	}
	return nil
}

func splitWaybills(s string) []string {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), `"`); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeCreateResponse reads the manifest reply of /api/cmu/create.json.
func normalizeCreateResponse(v any) *CreateResult {
	m := obj(v)
	res := &CreateResult{Raw: m}
	if ok, found := boolish(m["success"]); found {
		res.Success = ok
	}
	res.Remark = strings.Join(stringList(m["rmk"]), "; ")
	res.UploadWBN = str(m["upload_wbn"])
	for _, item := range list(m["packages"]) {
		p := obj(item)
		pkg := PackageResult{
			Waybill:  str(p["waybill"]),
			RefNum:   firstString(p, "refnum", "order", "ref_num"),
			Status:   str(p["status"]),
			Remarks:  stringList(p["remarks"]),
			SortCode: str(p["sort_code"]),
		}
		if ok, found := boolish(p["serviceable"]); found {
			pkg.Serviceable = ok
		}
		res.Packages = append(res.Packages, pkg)
	}
	return res
}

// normalizeTracking reads /api/v1/packages/json/. An explicit Error field is a
// carrier error; an empty ShipmentData or shipments without scans mean no scans yet.
func normalizeTracking(v any) *TrackingResult {
	m := obj(v)
	res := &TrackingResult{Raw: m}

	if msg := firstString(m, "Error", "error"); msg != "" {
		res.Outcome = TrackingCarrierError
		res.Error = msg
		return res
	}
	if ok, found := boolish(m["Success"]); found && !ok {
		res.Outcome = TrackingCarrierError
		res.Error = firstString(m, "Message", "message", "rmk")
		if res.Error == "" {
			res.Error = "carrier reported tracking failure"
		}
		return res
	}

	hasScans := false
	for _, item := range list(m["ShipmentData"]) {
		sh := obj(obj(item)["Shipment"])
		if len(sh) == 0 {
			continue
		}
		status := obj(sh["Status"])
		consignee := obj(sh["Consignee"])
		ts := TrackedShipment{
			Waybill:              firstString(sh, "AWB", "Waybill"),
			ReferenceNo:          firstString(sh, "ReferenceNo", "OrderId"),
			Status:               str(status["Status"]),
			StatusType:           str(status["StatusType"]),
			StatusLocation:       str(status["StatusLocation"]),
			StatusDateTime:       str(status["StatusDateTime"]),
			Instructions:         str(status["Instructions"]),
			Origin:               str(sh["Origin"]),
			Destination:          str(sh["Destination"]),
			PickupDate:           firstString(sh, "PickUpDate", "PickedupDate"),
			ExpectedDeliveryDate: firstString(sh, "ExpectedDeliveryDate", "PromisedDeliveryDate"),
			DeliveredDate:        firstString(sh, "DeliveryDate", "DeliveredDate"),
			ConsigneeName:        str(consignee["Name"]),
			ConsigneeCity:        str(consignee["City"]),
			ConsigneeState:       str(consignee["State"]),
			ConsigneePin:         firstString(consignee, "PinCode", "Pincode", "Pin"),
			PaymentMode:          firstString(sh, "OrderType", "PaymentMode"),
			CODAmount:            num(sh["CODAmount"]),
			InvoiceAmount:        num(sh["InvoiceAmount"]),
		}
		for _, sc := range list(sh["Scans"]) {
			d := obj(obj(sc)["ScanDetail"])
			if len(d) == 0 {
				continue
			}
			ts.Scans = append(ts.Scans, Scan{
				Scan:         str(d["Scan"]),
				ScanType:     str(d["ScanType"]),
				DateTime:     firstString(d, "ScanDateTime", "StatusDateTime"),
				Location:     str(d["ScannedLocation"]),
				Instructions: str(d["Instructions"]),
			})
		}
		if len(ts.Scans) > 0 {
			hasScans = true
		}
		res.Shipments = append(res.Shipments, ts)
	}

	if hasScans {
		res.Outcome = TrackingFound
	} else {
		res.Outcome = TrackingNoScans
	}
	return res
}

// normalizeEditResponse reads the reply of an edit on /api/p/edit.
func normalizeEditResponse(v any) *EditResult {
	m := obj(v)
	res := &EditResult{Raw: m}
	res.Message = firstString(m, "remark", "remarks", "message", "error", "rmk")
	if ok, found := boolish(m["status"]); found {
		res.Success = ok
	} else if ok, found := boolish(m["success"]); found {
		res.Success = ok
	} else {
		res.Success = !domain.ClassifyCarrierMessage(res.Message).IsFailureLanguage()
	}
	if !res.Success {
		res.Issue = domain.ClassifyCarrierMessage(res.Message)
	}
	return res
}

// normalizeCancelResponse applies the cancellation success heuristic in order:
// explicit boolean flag, status string, classified message, and finally the
// absence of any failure language.
func normalizeCancelResponse(v any) *CancelResult {
	m := obj(v)
	res := &CancelResult{Raw: m}
	res.Message = firstString(m, "remark", "remarks", "message", "msg", "error", "detail", "rmk")
	issue := domain.ClassifyCarrierMessage(res.Message)
	res.NotFound = issue == domain.IssueNotFound

	for _, key := range []string{"status", "success"} {
		if ok, found := boolish(m[key]); found {
			res.Success = ok
			return res
		}
	}
	if errMsg := str(m["error"]); errMsg != "" {
		res.Success = false
		return res
	}
	res.Success = !issue.IsFailureLanguage()
	return res
}

// normalizeServiceability reads /c/api/pin-codes/json/.
func normalizeServiceability(pincode string, v any) Serviceability {
	codes := list(obj(v)["delivery_codes"])
	if len(codes) == 0 {
		return Serviceability{Pincode: pincode, Serviceable: false, Embargo: false, Remark: RemarkNonServiceable}
	}
	pc := obj(obj(codes[0])["postal_code"])
	remark := strings.TrimSpace(str(pc["remarks"]))
	res := Serviceability{
		Pincode:     pincode,
		Serviceable: true,
		Remark:      remark,
		City:        str(pc["city"]),
		District:    str(pc["district"]),
		State:       firstString(pc, "state_code", "state"),
		COD:         yes(pc["cod"]),
		Prepaid:     yes(pc["pre_paid"]),
		Pickup:      yes(pc["pickup"]),
		Replacement: yes(pc["repl"]),
		ODA:         yes(pc["is_oda"]),
	}
	if remark == RemarkEmbargo {
		res.Serviceable = false
		res.Embargo = true
	}
	return res
}

// normalizeHeavyServiceability accepts a bare list or a list under "data".
func normalizeHeavyServiceability(pincode string, v any) HeavyServiceability {
	items := list(v)
	if items == nil {
		m := obj(v)
		items = list(m["data"])
		if items == nil {
			items = list(m["results"])
		}
	}
	res := HeavyServiceability{Pincode: pincode, Serviceable: len(items) > 0}
	if len(items) > 0 {
		first := obj(items[0])
		res.PaymentTypes = stringList(first["payment_type"])
		res.Remark = firstString(first, "remarks", "remark")
	}
	return res
}

// extractWarehouseArray finds the list of warehouses in a probe reply.
func extractWarehouseArray(v any) ([]any, bool) {
	if arr, ok := v.([]any); ok {
		return arr, true
	}
	m := obj(v)
	for _, key := range []string{"data", "warehouses", "results", "client_warehouses", "items"} {
		if arr, ok := m[key].([]any); ok {
			return arr, true
		}
		if inner := obj(m[key]); inner != nil {
			if arr, ok := extractWarehouseArray(inner); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

// normalizeWarehouse maps a carrier warehouse record onto domain.Warehouse,
// reconciling the many field names the carrier uses for the same attribute.
func normalizeWarehouse(v any) (domain.Warehouse, bool) {
	m := obj(v)
	name := firstString(m, "name", "warehouse_name", "client_warehouse_name", "pickup_location", "facility_name")
	if name == "" {
		return domain.Warehouse{}, false
	}
	w := domain.Warehouse{
		Name:          name,
		Phone:         firstString(m, "phone", "contact", "phone_number", "mobile", "contact_number"),
		Email:         str(m["email"]),
		Address:       firstString(m, "address", "add", "address_line", "registered_address", "warehouse_address"),
		City:          firstString(m, "city", "warehouse_city"),
		Pin:           firstString(m, "pin", "pincode", "warehouse_pin", "pin_code", "postal_code"),
		State:         firstString(m, "state", "warehouse_state"),
		Country:       firstString(m, "country"),
		ReturnAddress: firstString(m, "return_address", "return_add"),
		ReturnPin:     firstString(m, "return_pin", "return_pincode"),
		ReturnCity:    str(m["return_city"]),
		ReturnState:   str(m["return_state"]),
		Status:        domain.WarehouseActive,
		Source:        domain.SourceCarrier,
	}
	if w.Country == "" {
		w.Country = "India"
	}
	if active, found := boolish(m["active"]); found && !active {
		w.Status = domain.WarehouseInactive
	}
	if s := strings.ToLower(str(m["status"])); s == domain.WarehouseInactive || s == domain.WarehousePending {
		w.Status = s
	}
	return w, true
}

// normalizeWarehouseResponse reads the reply of warehouse create or edit.
func normalizeWarehouseResponse(v any) *WarehouseResult {
	m := obj(v)
	res := &WarehouseResult{Raw: m}
	res.Message = firstString(m, "message", "error", "remark", "detail")
	if ok, found := boolish(m["success"]); found {
		res.Success = ok
	} else if ok, found := boolish(m["status"]); found {
		res.Success = ok
	} else {
		res.Success = !domain.ClassifyCarrierMessage(res.Message).IsFailureLanguage()
	}
	if data := obj(m["data"]); data != nil {
		if w, ok := normalizeWarehouse(data); ok {
			res.Warehouse = &w
		}
	}
	return res
}

// normalizePickupResponse reads /fm/request/new/. pickup_id arrives as a number.
func normalizePickupResponse(v any) *PickupResult {
	m := obj(v)
	res := &PickupResult{Raw: m}
	res.PickupID = firstString(m, "pickup_id", "pickupId", "id")
	res.PickupDate = str(m["pickup_date"])
	res.PickupTime = str(m["pickup_time"])
	res.Message = firstString(m, "error", "message", "remark", "prepaid")
	if exists, _ := boolish(m["pr_exist"]); exists {
		res.AlreadyExists = true
	}
	res.Success = res.PickupID != "" || res.AlreadyExists
	if res.Message == "" && !res.Success {
		res.Message = "carrier did not return a pickup id"
	}
	return res
}

// normalizeEwaybillResponse reads the reply of the e-waybill update.
func normalizeEwaybillResponse(v any) *EwaybillResult {
	m := obj(v)
	res := &EwaybillResult{Raw: m}
	res.Message = firstString(m, "message", "error", "remark", "status")
	if ok, found := boolish(m["success"]); found {
		res.Success = ok
	} else if ok, found := boolish(m["status"]); found {
		res.Success = ok
	} else {
		res.Success = !domain.ClassifyCarrierMessage(res.Message).IsFailureLanguage()
	}
	return res
}

// normalizeLabelResponse reads the JSON variant of /api/p/packing_slip.
func normalizeLabelResponse(v any) *LabelResult {
	m := obj(v)
	res := &LabelResult{Raw: m}
	for _, item := range list(m["packages"]) {
		p := obj(item)
		res.Packages = append(res.Packages, p)
		if link := firstString(p, "pdf_download_link", "pdf_link", "label_url"); link != "" {
			res.Links = append(res.Links, link)
		}
	}
	return res
}

// ── primitives ───────────────────────────────────────────────────────────────

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

// str renders scalars as strings. Whole numbers are printed without exponent.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func num(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}

// boolish interprets booleans, "true"/"false" and "Success"/"Failure" strings.
// found is false when v carries no boolean meaning.
func boolish(v any) (value bool, found bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "success", "ok", "yes", "y":
			return true, true
		case "false", "failure", "fail", "failed", "error", "no", "n":
			return false, true
		}
	}
	return false, false
}

func yes(v any) bool {
	b, _ := boolish(v)
	return b
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.Join(stringList(m[k]), "; "); s != "" {
			return s
		}
	}
	return ""
}

// stringList accepts a scalar or an array and drops empty entries.
func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := str(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

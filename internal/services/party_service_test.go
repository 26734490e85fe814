package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"raddiwala/internal/models"
	"raddiwala/internal/validators"
)

func addressRequest(city string) *validators.AddressRequest {
	return &validators.AddressRequest{Line: "7 Park Lane", Area: "Bandra", City: city, Pincode: "400050"}
}

func TestAddressLimit(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")

	for i := 0; i < 2; i++ {
		if _, err := m.partySvc.AddAddress(ctx, customer.ID, addressRequest("Mumbai")); err != nil {
			t.Fatalf("AddAddress() #%d error = %v", i+1, err)
		}
	}
	_, err := m.partySvc.AddAddress(ctx, customer.ID, addressRequest("Mumbai"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("AddAddress() over limit error = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("message = %q, want the limit in it", err.Error())
	}

	profile, err := m.partySvc.CustomerProfile(ctx, customer.ID)
	if err != nil {
		t.Fatalf("CustomerProfile() error = %v", err)
	}
	if len(profile.Addresses) != 3 {
		t.Errorf("addresses = %d, want 3", len(profile.Addresses))
	}
}

func TestDeleteAddress(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, address := m.addCustomer("Mumbai")
	request := m.openRequest(customer, address, models.Weight2To5, models.WastePaper)

	if err := m.partySvc.DeleteAddress(ctx, customer.ID, address.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("DeleteAddress() with open request error = %v, want ErrInvalidState", err)
	}

	if err := m.pickupSvc.Cancel(ctx, customer.ID, request.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := m.partySvc.DeleteAddress(ctx, customer.ID, address.ID); err != nil {
		t.Fatalf("DeleteAddress() error = %v", err)
	}
	if _, err := m.addresses.GetByID(ctx, address.ID); err == nil {
		t.Error("address should be removed")
	}
	if got := m.customers.byID[customer.ID].AddressIDs; len(got) != 0 {
		t.Errorf("customer addresses = %v, want none", got)
	}
}

func TestAddressOwnership(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")
	_, foreign := m.addCustomer("Mumbai")

	city := "Thane"
	if _, err := m.partySvc.UpdateAddress(ctx, customer.ID, foreign.ID, &validators.AddressUpdateRequest{City: &city}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("UpdateAddress() error = %v, want ErrAccessDenied", err)
	}
	if err := m.partySvc.DeleteAddress(ctx, customer.ID, foreign.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("DeleteAddress() error = %v, want ErrAccessDenied", err)
	}
}

func TestUpdateAddressMovesCity(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, address := m.addCustomer("Mumbai")

	city := "Navi Mumbai"
	updated, err := m.partySvc.UpdateAddress(ctx, customer.ID, address.ID, &validators.AddressUpdateRequest{City: &city})
	if err != nil {
		t.Fatalf("UpdateAddress() error = %v", err)
	}
	if updated.City != city || updated.Line != address.Line {
		t.Errorf("address = %+v", updated)
	}
	stored, _ := m.addresses.GetByID(ctx, address.ID)
	if stored.CityKey != "navi mumbai" {
		t.Errorf("city key = %q, want %q", stored.CityKey, "navi mumbai")
	}
}

func TestUpdateShopAddress(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	collector := m.addCollector("Mumbai")

	shop, err := m.partySvc.UpdateShopAddress(ctx, collector.ID, addressRequest("Pune"))
	if err != nil {
		t.Fatalf("UpdateShopAddress() error = %v", err)
	}
	if shop.ID != collector.ShopAddressID {
		t.Errorf("shop address id = %s, want it updated in place", shop.ID.Hex())
	}
	stored, _ := m.addresses.GetByID(ctx, collector.ShopAddressID)
	if stored.City != "Pune" {
		t.Errorf("stored city = %q, want Pune", stored.City)
	}

	m.addresses.Delete(ctx, collector.ShopAddressID)
	shop, err = m.partySvc.UpdateShopAddress(ctx, collector.ID, addressRequest("Nagpur"))
	if err != nil {
		t.Fatalf("UpdateShopAddress() without address error = %v", err)
	}
	if got := m.collectors.snapshot(collector.ID).ShopAddressID; got != shop.ID {
		t.Errorf("collector shop = %s, want the new address %s", got.Hex(), shop.ID.Hex())
	}
}

func TestUpdateProfilePhoneConflict(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")
	other, _ := m.addCustomer("Mumbai")

	phone := other.Phone
	err := m.partySvc.UpdateProfile(ctx, customer.ID, models.RoleCustomer, &validators.ProfileUpdateRequest{Phone: &phone})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("UpdateProfile() error = %v, want ErrConflict", err)
	}

	own := customer.Phone
	name := "Asha Rao"
	if err := m.partySvc.UpdateProfile(ctx, customer.ID, models.RoleCustomer, &validators.ProfileUpdateRequest{Name: &name, Phone: &own}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got := m.customers.byID[customer.ID].Name; got != name {
		t.Errorf("name = %q, want %q", got, name)
	}
}

func TestCollectorProfileReportsQuota(t *testing.T) {
	m := newMarketplace()
	collector := m.addCollector("Mumbai")
	m.collectors.byID[collector.ID].MonthlyPickupsCount = 50

	profile, err := m.partySvc.CollectorProfile(context.Background(), collector.ID)
	if err != nil {
		t.Fatalf("CollectorProfile() error = %v", err)
	}
	if profile.CanPlaceBid {
		t.Error("collector at the limit cannot place bids")
	}
	if profile.ShopAddress == nil || profile.ShopAddress.City != "Mumbai" {
		t.Errorf("shop address = %+v", profile.ShopAddress)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestUploadProfilePicture(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")

	data := testPNG(t, 64, 48)
	first, err := m.partySvc.UploadProfilePicture(ctx, customer.ID, models.RoleCustomer, &FileUpload{
		Filename: "me.png", Size: int64(len(data)), Reader: bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("UploadProfilePicture() error = %v", err)
	}
	if !strings.HasPrefix(first, "/uploads/profile-pictures/") {
		t.Errorf("url = %q", first)
	}

	second, err := m.partySvc.UploadProfilePicture(ctx, customer.ID, models.RoleCustomer, &FileUpload{
		Filename: "me2.png", Size: int64(len(data)), Reader: bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("second UploadProfilePicture() error = %v", err)
	}
	if first == second {
		t.Error("each upload should get its own key")
	}
	if m.storage.count() != 1 {
		t.Errorf("stored files = %d, want the previous picture removed", m.storage.count())
	}
	if got := m.customers.byID[customer.ID].ProfilePicture; got != second {
		t.Errorf("profile picture = %q, want %q", got, second)
	}
}

func TestUploadProfilePictureRejectsNonImages(t *testing.T) {
	m := newMarketplace()
	customer, _ := m.addCustomer("Mumbai")

	_, err := m.partySvc.UploadProfilePicture(context.Background(), customer.ID, models.RoleCustomer, &FileUpload{
		Filename: "me.jpg", Size: 11, Reader: strings.NewReader("not a photo"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("UploadProfilePicture() error = %v, want ErrValidation", err)
	}
	if m.storage.count() != 0 {
		t.Error("nothing should be stored")
	}
}

func TestDeactivateKeepsEmailReserved(t *testing.T) {
	m := newMarketplace()
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")

	if err := m.partySvc.Deactivate(ctx, customer.ID, models.RoleCustomer); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if _, err := m.partySvc.CustomerProfile(ctx, customer.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("CustomerProfile() error = %v, want ErrNotFound", err)
	}

	again := &models.Customer{Profile: models.Profile{Name: "Asha", Email: customer.Email, Phone: "9000000001"}}
	if err := m.customers.Create(ctx, again); err == nil {
		t.Error("the email of a deactivated account stays taken")
	}
}

func TestRegisterDeviceToken(t *testing.T) {
	m := newMarketplace()
	collector := m.addCollector("Mumbai")

	err := m.partySvc.RegisterDeviceToken(context.Background(), collector.ID, models.RoleCollector, &validators.DeviceTokenRequest{Token: "fcm-token", Platform: "android"})
	if err != nil {
		t.Fatalf("RegisterDeviceToken() error = %v", err)
	}
	tokens := m.collectors.snapshot(collector.ID).DeviceTokens
	if len(tokens) != 1 || tokens[0].Platform != models.PlatformAndroid {
		t.Errorf("tokens = %+v", tokens)
	}

	err = m.partySvc.RegisterDeviceToken(context.Background(), collector.ID, models.RoleCollector, &validators.DeviceTokenRequest{Token: "x", Platform: "symbian"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("RegisterDeviceToken() error = %v, want ErrValidation", err)
	}
}

// Package cart keeps the shopping cart in the local cache under
// "skillfinite-cart". There is no server copy; the payment flow calls
// ClearCart once a purchase completes.
//
// Prices are display strings ("Free", "$49"). TotalPrice keeps only their
// digits. DiscountedTotal is five times TotalPrice and exists to render a
// struck-through "original" price; it does not come from any pricing data.
package cart

package i18n

// translations maps key → language code → format string.
// English entries match the strings the scoring engine produces.
//
// Supported languages: en (English), bn (Bangla).
var translations = map[string]map[string]string{

	// ─── Signal labels ───────────────────────────────────────────────────────
	"risk.signal.gibberish_address": {
		"en": "Gibberish Address",
		"bn": "অর্থহীন ঠিকানা",
	},
	"risk.signal.invalid_phone": {
		"en": "Invalid Phone Number",
		"bn": "অবৈধ ফোন নম্বর",
	},
	"risk.signal.name_mismatch": {
		"en": "Name Mismatch",
		"bn": "নামের অমিল",
	},
	"risk.signal.rapid_orders": {
		"en": "Rapid Repeat Orders",
		"bn": "দ্রুত পুনরাবৃত্ত অর্ডার",
	},
	"risk.signal.high_cancellation": {
		"en": "High Cancellation Rate",
		"bn": "উচ্চ বাতিলের হার",
	},
	"risk.signal.short_address_parts": {
		"en": "Suspicious Address Format",
		"bn": "সন্দেহজনক ঠিকানার বিন্যাস",
	},
	"risk.signal.high_value_first_order": {
		"en": "High-Value First Order",
		"bn": "উচ্চ মূল্যের প্রথম অর্ডার",
	},

	// ─── Risk levels ─────────────────────────────────────────────────────────
	"risk.level.low": {
		"en": "Low Risk",
		"bn": "কম ঝুঁকি",
	},
	"risk.level.medium": {
		"en": "Medium Risk",
		"bn": "মাঝারি ঝুঁকি",
	},
	"risk.level.high": {
		"en": "High Risk",
		"bn": "উচ্চ ঝুঁকি",
	},

	// ─── Recommendations ─────────────────────────────────────────────────────
	"risk.recommendation.high": {
		"en": "This order shows multiple fraud indicators. Consider rejecting or verifying with the customer before processing.",
		"bn": "এই অর্ডারে একাধিক প্রতারণার লক্ষণ রয়েছে। প্রক্রিয়া করার আগে বাতিল করার কথা বিবেচনা করুন অথবা গ্রাহকের সাথে যাচাই করুন।",
	},
	"risk.recommendation.medium": {
		"en": "This order has some suspicious signals. Review the details carefully before accepting.",
		"bn": "এই অর্ডারে কিছু সন্দেহজনক লক্ষণ রয়েছে। গ্রহণ করার আগে বিস্তারিত সাবধানে পর্যালোচনা করুন।",
	},
	"risk.recommendation.low": {
		"en": "This order appears normal. No significant fraud indicators detected.",
		"bn": "এই অর্ডারটি স্বাভাবিক মনে হচ্ছে। উল্লেখযোগ্য কোনো প্রতারণার লক্ষণ পাওয়া যায়নি।",
	},

	// ─── Event notifications ─────────────────────────────────────────────────
	// %s = order ID, %s = risk level label
	"risk.flagged.title": {
		"en": "Order %s flagged: %s",
		"bn": "অর্ডার %s চিহ্নিত: %s",
	},
}

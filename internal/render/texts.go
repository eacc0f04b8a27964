package render

// User-facing copy. The bot speaks Uzbek only.
const (
	defaultFirstName = "Foydalanuvchi"

	welcomeFormat = "👋 Salom, %s botimizga xush kelibsiz! "
	ordinalFormat = "Siz botdagi *%d*-foydalanuvchi bo'ldingiz. "
	welcomeTail   = "💬 Bu bot orqali foydalanuvchi, guruh va kanallarning ID'sini olish imkoniyatiga ega bo'lasiz. " +
		"⭐ Botga start tugmasini bosib, ish faoliyatini boshlang."

	subscribedText = "✅ Obuna bo'lingan! Siz botdan foydalanishingiz mumkin."

	denyText          = "⚠️ Botdan foydalanish uchun quyidagi kanalga obuna bo'ling."
	denyChannelFormat = "\n\n🆔 Kanal ID: `%s`\n📝 Admin bilan bog'laning yoki kanalning public username'ini so'rang."
	denyNotice        = "❌ Siz hali kanalga obuna bo'lmagansiz. Iltimos, avval kanalga obuna bo'ling."

	userIDFormat    = "Foydalanuvchi ID: `%d`"
	chatIDFormat    = "Guruh/Kanal ID: `%d`"
	channelIDFormat = "Kanal ID: `%s`"

	unavailableText = "ℹ️ Ma'lumot mavjud emas."
	unknownText     = "🤷 Noma'lum buyruq. Boshlash uchun /start buyrug'ini yuboring."
	failureNotice   = "❌ Xatolik yuz berdi. Qaytadan urinib ko'ring."
	statsFormat     = "📊 Foydalanuvchilar soni: *%d*\n🛠 Versiya: `%s`"

	labelSubscribe = "✅ Obuna bo'lish"
	labelRecheck   = "🔄 Tekshirish"
	labelUserID    = "👤 Foydalanuvchi ID"
	labelChatID    = "👥 Guruh/Kanal ID"
	labelChannelID = "📜 Kanal ID"
)

// Callback actions of the feature menu.
const (
	ActionUserID    = "get_user_id"
	ActionChatID    = "get_chat_id"
	ActionChannelID = "get_channel_id"
)

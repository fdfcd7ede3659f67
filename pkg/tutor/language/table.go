package language

// builtin is the default table, ordered by display name.
var builtin = []Language{
	{Name: "Afrikaans", Code: "af", Greeting: "Hallo! Hoe gaan dit?", TopicQuestion: "Waaroor wil jy vandag gesels?"},
	{Name: "Arabic", Code: "ar", Greeting: "مرحباً! كيف حالك؟", TopicQuestion: "عن ماذا ترغب في التحدث اليوم؟"},
	{Name: "Armenian", Code: "hy", Greeting: "Բարև! Ինչպե՞ս ես:", TopicQuestion: "Որի մասին կցանկանայիր խոսել այսօր:"},
	{Name: "Azerbaijani", Code: "az", Greeting: "Salam! Necəsən?", TopicQuestion: "Bu gün nə haqqında danışmaq istərdiniz?"},
	{Name: "Belarusian", Code: "be", Greeting: "Прывітанне! Як справы?", TopicQuestion: "Пра што ты хацеў бы пагаварыць сёння?"},
	{Name: "Bosnian", Code: "bs", Greeting: "Zdravo! Kako si?", TopicQuestion: "O čemu želiš razgovarati danas?"},
	{Name: "Bulgarian", Code: "bg", Greeting: "Здравей! Как си?", TopicQuestion: "За какво искаш да говорим днес?"},
	{Name: "Catalan", Code: "ca", Greeting: "Hola! Com estàs?", TopicQuestion: "De què t'agradaria parlar avui?"},
	{Name: "Chinese", Code: "zh", Greeting: "你好！你好吗？", TopicQuestion: "你今天想聊什么？"},
	{Name: "Croatian", Code: "hr", Greeting: "Bok! Kako si?", TopicQuestion: "O čemu želiš razgovarati danas?"},
	{Name: "Czech", Code: "cs", Greeting: "Ahoj! Jak se máš?", TopicQuestion: "O čem bys chtěl dnes mluvit?"},
	{Name: "Danish", Code: "da", Greeting: "Hej! Hvordan har du det?", TopicQuestion: "Hvad vil du gerne tale om i dag?"},
	{Name: "Dutch", Code: "nl", Greeting: "Hallo! Hoe gaat het?", TopicQuestion: "Waar wil je het vandaag over hebben?"},
	{Name: "English", Code: "en", Greeting: "Hello! How are you?", TopicQuestion: "What would you like to talk about today?"},
	{Name: "English (UK)", Code: "en", Greeting: "Hello! How are you?", TopicQuestion: "What would you like to talk about today?"},
	{Name: "English (US)", Code: "en", Greeting: "Hello! How are you?", TopicQuestion: "What would you like to talk about today?"},
	{Name: "Estonian", Code: "et", Greeting: "Tere! Kuidas läheb?", TopicQuestion: "Millest sa tahaksid täna rääkida?"},
	{Name: "Filipino", Code: "tl", Greeting: "Kumusta! Kamusta ka?", TopicQuestion: "Anong gusto mong pag-usapan ngayon?"},
	{Name: "Finnish", Code: "fi", Greeting: "Hei! Mitä kuuluu?", TopicQuestion: "Mistä haluaisit puhua tänään?"},
	{Name: "French", Code: "fr", Greeting: "Salut ! Comment ça va ?", TopicQuestion: "De quoi aimerais-tu parler aujourd'hui ?"},
	{Name: "Galician", Code: "gl", Greeting: "Ola! Como estás?", TopicQuestion: "De que che gustaría falar hoxe?"},
	{Name: "German", Code: "de", Greeting: "Hallo! Wie geht's?", TopicQuestion: "Worüber möchtest du heute sprechen?"},
	{Name: "Greek", Code: "el", Greeting: "Γεια σου! Τι κάνεις;", TopicQuestion: "Για τι θα ήθελες να μιλήσουμε σήμερα;"},
	{Name: "Hebrew", Code: "he", Greeting: "שלום! מה שלומך?", TopicQuestion: "על מה תרצה לדבר היום?"},
	{Name: "Hindi", Code: "hi", Greeting: "नमस्ते! आप कैसे हैं?", TopicQuestion: "आज आप किस बारे में बात करना चाहेंगे?"},
	{Name: "Hungarian", Code: "hu", Greeting: "Szia! Hogy vagy?", TopicQuestion: "Miről szeretnél ma beszélni?"},
	{Name: "Icelandic", Code: "is", Greeting: "Halló! Hvernig hefurðu það?", TopicQuestion: "Um hvað viltu tala í dag?"},
	{Name: "Indonesian", Code: "id", Greeting: "Halo! Apa kabar?", TopicQuestion: "Tentang apa kamu ingin berbicara hari ini?"},
	{Name: "Italian", Code: "it", Greeting: "Ciao! Come stai?", TopicQuestion: "Di cosa ti piacerebbe parlare oggi?"},
	{Name: "Japanese", Code: "ja", Greeting: "こんにちは！お元気ですか？", TopicQuestion: "今日は何について話したいですか？"},
	{Name: "Kannada", Code: "kn", Greeting: "ನಮಸ್ಕಾರ! ನೀವು ಹೇಗಿದ್ದೀರಿ?", TopicQuestion: "ಇಂದು ನೀವು ಯಾವ ವಿಷಯದ ಬಗ್ಗೆ ಮಾತನಾಡಲು ಬಯಸುತ್ತೀರಿ?"},
	{Name: "Kazakh", Code: "kk", Greeting: "Сәлем! Қалың қалай?", TopicQuestion: "Бүгін не туралы сөйлескіңіз келеді?"},
	{Name: "Korean", Code: "ko", Greeting: "안녕하세요! 잘 지내요?", TopicQuestion: "오늘은 어떤 이야기를 하고 싶어요?"},
	{Name: "Latvian", Code: "lv", Greeting: "Sveiki! Kā iet?", TopicQuestion: "Par ko tu vēlētos runāt šodien?"},
	{Name: "Lithuanian", Code: "lt", Greeting: "Labas! Kaip sekasi?", TopicQuestion: "Apie ką norėtum šiandien pakalbėti?"},
	{Name: "Macedonian", Code: "mk", Greeting: "Здраво! Како си?", TopicQuestion: "За што сакаш да зборуваме денес?"},
	{Name: "Malay", Code: "ms", Greeting: "Hai! Apa khabar?", TopicQuestion: "Apa yang ingin anda bincangkan hari ini?"},
	{Name: "Maori", Code: "mi", Greeting: "Kia ora! Kei te pēhea koe?", TopicQuestion: "He aha tāu e hiahia ana ki te kōrero i tēnei rā?"},
	{Name: "Marathi", Code: "mr", Greeting: "नमस्कार! तू कसा आहेस?", TopicQuestion: "आज तुम्हाला कशाबद्दल बोलायचे आहे?"},
	{Name: "Nepali", Code: "ne", Greeting: "नमस्ते! तपाईं कस्तो हुनुहुन्छ?", TopicQuestion: "आज तपाईं के बारेमा कुरा गर्न चाहनुहुन्छ?"},
	{Name: "Norwegian", Code: "no", Greeting: "Hei! Hvordan har du det?", TopicQuestion: "Hva vil du snakke om i dag?"},
	{Name: "Persian", Code: "fa", Greeting: "سلام! حال شما چطور است؟", TopicQuestion: "امروز می‌خواهید در مورد چه چیزی صحبت کنید؟"},
	{Name: "Polish", Code: "pl", Greeting: "Cześć! Jak się masz?", TopicQuestion: "O czym chciałbyś dziś porozmawiać?"},
	{Name: "Portuguese (Brazil)", Code: "pt", Greeting: "Oi! Tudo bem?", TopicQuestion: "Sobre o que você gostaria de conversar hoje?"},
	{Name: "Portuguese (Portugal)", Code: "pt", Greeting: "Olá! Como estás?", TopicQuestion: "Sobre o que gostarias de falar hoje?"},
	{Name: "Romanian", Code: "ro", Greeting: "Bună! Ce mai faci?", TopicQuestion: "Despre ce ai vrea să vorbim astăzi?"},
	{Name: "Russian", Code: "ru", Greeting: "Привет! Как дела?", TopicQuestion: "О чём ты хотел бы поговорить сегодня?"},
	{Name: "Serbian", Code: "sr", Greeting: "Здраво! Како си?", TopicQuestion: "О чему желиш да причамо данас?"},
	{Name: "Slovak", Code: "sk", Greeting: "Ahoj! Ako sa máš?", TopicQuestion: "O čom by si chcel dnes hovoriť?"},
	{Name: "Slovenian", Code: "sl", Greeting: "Živjo! Kako si?", TopicQuestion: "O čem bi rad govoril danes?"},
	{Name: "Spanish (Mexico)", Code: "es", Greeting: "¡Hola! ¿Cómo estás?", TopicQuestion: "¿De qué te gustaría hablar hoy?"},
	{Name: "Spanish (Spain)", Code: "es", Greeting: "¡Hola! ¿Cómo estás?", TopicQuestion: "¿De qué te gustaría hablar hoy?"},
	{Name: "Swahili", Code: "sw", Greeting: "Habari! Habari gani?", TopicQuestion: "Ungependa kuzungumza kuhusu nini leo?"},
	{Name: "Swedish", Code: "sv", Greeting: "Hej! Hur mår du?", TopicQuestion: "Vad vill du prata om idag?"},
	{Name: "Tagalog", Code: "tl", Greeting: "Kumusta! Kumusta ka?", TopicQuestion: "Anong gusto mong pag-usapan ngayon?"},
	{Name: "Tamil", Code: "ta", Greeting: "வணக்கம்! எப்படி இருக்கிறீர்கள்?", TopicQuestion: "இன்று நீங்கள் எதைப் பற்றி பேச விரும்புகிறீர்கள்?"},
	{Name: "Thai", Code: "th", Greeting: "สวัสดี! สบายดีไหม?", TopicQuestion: "วันนี้คุณอยากคุยเรื่องอะไร?"},
	{Name: "Turkish", Code: "tr", Greeting: "Merhaba! Nasılsın?", TopicQuestion: "Bugün ne hakkında konuşmak istersin?"},
	{Name: "Ukrainian", Code: "uk", Greeting: "Привіт! Як справи?", TopicQuestion: "Про що ти хотів би сьогодні поговорити?"},
	{Name: "Urdu", Code: "ur", Greeting: "السلام علیکم! آپ کیسے ہیں؟", TopicQuestion: "آج آپ کس بارے میں بات کرنا چاہیں گے؟"},
	{Name: "Vietnamese", Code: "vi", Greeting: "Xin chào! Bạn khỏe không?", TopicQuestion: "Hôm nay bạn muốn nói về điều gì?"},
	{Name: "Welsh", Code: "cy", Greeting: "Helo! Sut wyt ti?", TopicQuestion: "Am beth hoffet ti siarad heddiw?"},
}

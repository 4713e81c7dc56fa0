package parser

const searchPage = `<html><head>
<script>
window.__page__data_sse10._offer_list = {"offerResultData":{"offers":[
 {"productId":"1600111111111","enPureTitle":"Steel Water Bottle &amp; Lid","price":"$7.10-9.50",
  "productUrl":"//www.alibaba.com/product-detail/Steel-Bottle_1600111111111.html",
  "companyName":"Acme Metal","supplierHref":"//acme.en.alibaba.com","halfTrustMoq":50,
  "reviewCount":40,"reviewScore":"4.7","soldCount":1500,"goldSupplierYears":"7 YRS",
  "iuiInfo":{"dataSource":{"companyInfo":{"reviewCount":210,"reviewScore":"4.9"}}},},
 {"offerId":1600222222222,"title":"<b>Bamboo</b> Board","priceV2":"12.50",
  "productUrl":"/product-detail/Bamboo_1600222222222.html","moqV2":"2 sets","orderCount":30,
  "companyAuthTagList": undefined},
 {"productId":"1600999999999","title":""},
]}};
window.other = 1;
</script>
</head><body>
<div class="search-card-wrapper">
  <a class="search-card-e-detail-wrapper" href="//www.alibaba.com/product-detail/Steel-Bottle_1600111111111.html">
    <img src="//s.alicdn.com/@sc04/kf/bottle.jpg">
  </a>
  <h2 class="search-card-e-title"><a href="#">Steel   Water Bottle</a></h2>
  <div class="search-card-e-price-main" data-aplus-auto-card-mod="area=price&areaContent=US$6.80-9.90">US$6.80-9.90</div>
  <div data-aplus-auto-card-mod="area=moq&areaContent=100 pieces">Min. order: 100 pieces</div>
  <span class="search-card-e-review" data-aplus-auto-card-mod="area=review&areaContent=4.6@@36">4.6 (36)</span>
  <div data-aplus-auto-card-mod="area=soldQuantity&areaContent=1200">1200 sold</div>
  <img class="search-card-e-icon__certification" alt="CE" src="//img.example/ce.png">
  <img class="search-card-e-icon__certification" alt="RoHS" src="//img.example/rohs.png">
  <div data-aplus-auto-card-mod="area=deliveryBy">Est. delivery by Nov 02</div>
  <div data-aplus-auto-card-mod="easy_return">Easy Return</div>
  <a class="search-card-e-company" href="/company/acme">Acme Metal Co., Ltd.</a>
  <a class="verified-supplier-icon__wrapper"><img class="verified-supplier-icon" src="v.png"></a>
  <a class="search-card-e-supplier__year">6 yrs <img alt="cn" src="flag.png"></a>
  <div data-aplus-auto-card-mod="area=ggs"><svg><use href="#icon-diamond-large"></use><use href="#icon-diamond-large"></use></svg></div>
  <button>Add to cart</button><button>Chat now</button>
</div>
<div class="search-card-wrapper">
  <a class="search-card-e-detail-wrapper" href="/product-detail/Bamboo_1600222222222.html"></a>
  <h2><a>Bamboo Cutting Board</a></h2>
  <div class="search-card-e-price-main">€12,34 - €15,00</div>
  <a class="search-card-e-company" href="//bamboo.en.alibaba.com">Bamboo Works</a>
  <button>Chat now</button>
</div>
<div class="searchx-offer-item" data-aplus-auto-offer="pos=3&productId=1600333333333">
  <span class="searchx-moq">MOQ: 1.5k pieces</span>
  <span class="searchx-sold-order">2,000 sold</span>
</div>
</body></html>`
